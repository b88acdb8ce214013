package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Logical keys with strict rules.
const (
	KeyRoutines        = "routines"
	KeyWidgets         = "widgets"
	KeyActiveRoutineID = "activeRoutineId"
	KeyLastVisit       = "lastVisit"
)

// Weekdays are the day codes used by routines and lastVisit.
var Weekdays = []string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

var errNilValue = errors.New("value is null")

// Rule checks a value already normalized to its generic JSON form.
type Rule func(value any) error

// Validator decides whether a value may be stored under a logical key.
// Keys without a rule only reject nil.
type Validator struct {
	rules map[string]Rule
}

// NewValidator builds the validator with the rules of the critical keys.
func NewValidator() *Validator {
	fields := validator.New()
	weekdays := "omitempty,oneof=" + strings.Join(Weekdays, " ")

	return &Validator{
		rules: map[string]Rule{
			KeyRoutines:        schemaRule(jsonschema.MustCompileString("routines.json", `{"type": "array"}`)),
			KeyWidgets:         schemaRule(jsonschema.MustCompileString("widgets.json", `{"type": "array"}`)),
			KeyActiveRoutineID: scalarRule,
			KeyLastVisit: func(value any) error {
				s, ok := value.(string)
				if !ok {
					return fmt.Errorf("expected a weekday code, got %T", value)
				}
				return fields.Var(s, weekdays)
			},
		},
	}
}

var defaultValidator = NewValidator()

// IsValid reports whether value is acceptable for key.
func IsValid(value any, key string) bool {
	return defaultValidator.IsValid(value, key)
}

func (v *Validator) IsValid(value any, key string) bool {
	return v.Validate(value, key) == nil
}

// Validate explains why value can't be stored under key.
func (v *Validator) Validate(value any, key string) error {
	if value == nil {
		return errNilValue
	}

	generic, err := normalize(value)
	if err != nil {
		return err
	}
	if generic == nil {
		return errNilValue
	}

	rule, exists := v.rules[key]
	if !exists {
		return nil
	}

	return rule(generic)
}

// normalize converts any serializable value to the shapes produced by encoding/json.
func normalize(value any) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("value is not serializable: %w", err)
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("value is not serializable: %w", err)
	}

	return generic, nil
}

// schemaRule validates against a JSON schema, parsing string values first.
func schemaRule(schema *jsonschema.Schema) Rule {
	return func(value any) error {
		if s, ok := value.(string); ok {
			var parsed any
			if err := json.Unmarshal([]byte(s), &parsed); err != nil {
				return fmt.Errorf("string value is not JSON: %w", err)
			}
			value = parsed
		}
		return schema.Validate(value)
	}
}

// scalarRule accepts anything that coerces to a string.
func scalarRule(value any) error {
	switch value.(type) {
	case string, float64, bool:
		return nil
	}
	return fmt.Errorf("expected a string, got %T", value)
}
