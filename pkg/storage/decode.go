package storage

import (
	"encoding/json"
	"regexp"
	"strings"
)

// DecodeKind tags how a remote payload was turned into a value.
type DecodeKind int

const (
	// Absent means the remote table has no row for the key.
	Absent DecodeKind = iota
	Ok
	Repaired
	Unrecoverable
)

func (k DecodeKind) String() string {
	switch k {
	case Ok:
		return "ok"
	case Repaired:
		return "repaired"
	case Unrecoverable:
		return "unrecoverable"
	}
	return "absent"
}

// Decoded is the normalized remote payload.
type Decoded struct {
	Kind  DecodeKind
	Value any
	// Rule names the repair rule used, when Kind is Repaired.
	Rule string
}

// maxStringDepth bounds how many JSON string layers are peeled off a payload.
// A payload still holding a string below the last layer is unrecoverable.
const maxStringDepth = 4

// RepairRule recovers a value from a known legacy encoding.
type RepairRule struct {
	Name string
	// Embedded rules also apply to the content of a JSON string, not only to raw column text.
	Embedded bool
	Match    *regexp.Regexp
	Fix      func(s string) any
}

var (
	weekdayToken     = regexp.MustCompile(`^(sun|mon|tue|wed|thu|fri|sat)$`)
	objectToken      = regexp.MustCompile(`^\[object Object\]$`)
	escapedContainer = regexp.MustCompile(`^\\*"\\*(\[\]|\{\})\\*"\\*$`)
	objectLiteral    = regexp.MustCompile(`^\{.*\}$`)
	bareObjectKey    = regexp.MustCompile(`([{,]\s*)([A-Za-z_$][A-Za-z0-9_$]*)\s*:`)
)

// RepairRules are tried in order, the first match wins.
var RepairRules = []RepairRule{
	{
		Name:  "unquoted-weekday",
		Match: weekdayToken,
		Fix:   func(s string) any { return s },
	},
	{
		Name:     "object-placeholder",
		Embedded: true,
		Match:    objectToken,
		Fix:      func(string) any { return map[string]any{} },
	},
	{
		Name:  "escaped-empty-container",
		Match: escapedContainer,
		Fix: func(s string) any {
			if strings.Contains(s, "[]") {
				return []any{}
			}
			return map[string]any{}
		},
	},
	{
		Name:  "unquoted-keys",
		Match: objectLiteral,
		Fix: func(s string) any {
			quoted := bareObjectKey.ReplaceAllString(s, `$1"$2":`)
			var value any
			if err := json.Unmarshal([]byte(quoted), &value); err != nil {
				return map[string]any{}
			}
			return value
		},
	},
}

// DecodePayload normalizes the text of a remote value column.
func DecodePayload(raw string) Decoded {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Decoded{Kind: Unrecoverable}
	}

	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return repair(text, false)
	}

	if s, ok := value.(string); ok {
		return decodeString(s, 1)
	}

	return Decoded{Kind: Ok, Value: value}
}

// decodeString handles payloads stored as JSON strings.
// depth counts the string layers peeled so far; anything found below the first layer was encoded twice.
func decodeString(s string, depth int) Decoded {
	text := strings.TrimSpace(s)

	var value any
	if json.Unmarshal([]byte(text), &value) == nil {
		if inner, ok := value.(string); ok {
			if depth >= maxStringDepth {
				return Decoded{Kind: Unrecoverable}
			}
			return decodeString(inner, depth+1)
		}
		return peeled(Decoded{Kind: Ok, Value: value}, depth)
	}

	if d := repair(text, true); d.Kind == Repaired {
		return d
	}

	// An opaque string value.
	return peeled(Decoded{Kind: Ok, Value: s}, depth)
}

func peeled(d Decoded, depth int) Decoded {
	if depth > 1 && d.Kind == Ok {
		d.Kind = Repaired
		d.Rule = "double-encoded"
	}
	return d
}

func repair(text string, embedded bool) Decoded {
	for _, rule := range RepairRules {
		if embedded && !rule.Embedded {
			continue
		}
		if rule.Match.MatchString(text) {
			return Decoded{Kind: Repaired, Value: rule.Fix(text), Rule: rule.Name}
		}
	}

	return Decoded{Kind: Unrecoverable}
}
