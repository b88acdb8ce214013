package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type routineFixture struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
		want  bool
	}{
		{name: "routines array", key: KeyRoutines, value: []any{map[string]any{"id": "r1"}}, want: true},
		{name: "routines typed slice", key: KeyRoutines, value: []routineFixture{{ID: "r1", Name: "Morning"}}, want: true},
		{name: "routines empty", key: KeyRoutines, value: []any{}, want: true},
		{name: "routines json string", key: KeyRoutines, value: `[{"id":"r1"}]`, want: true},
		{name: "routines object", key: KeyRoutines, value: map[string]any{"id": "r1"}, want: false},
		{name: "routines string object", key: KeyRoutines, value: `{"id":"r1"}`, want: false},
		{name: "routines plain string", key: KeyRoutines, value: "morning", want: false},
		{name: "routines nil", key: KeyRoutines, value: nil, want: false},
		{name: "routines nil slice", key: KeyRoutines, value: []any(nil), want: false},
		{name: "widgets array", key: KeyWidgets, value: []string{"clock"}, want: true},
		{name: "widgets number", key: KeyWidgets, value: 3, want: false},
		{name: "active id", key: KeyActiveRoutineID, value: "r1", want: true},
		{name: "active id empty", key: KeyActiveRoutineID, value: "", want: true},
		{name: "active id number", key: KeyActiveRoutineID, value: 7, want: true},
		{name: "active id bool", key: KeyActiveRoutineID, value: false, want: true},
		{name: "active id nil", key: KeyActiveRoutineID, value: nil, want: false},
		{name: "active id object", key: KeyActiveRoutineID, value: map[string]any{}, want: false},
		{name: "last visit weekday", key: KeyLastVisit, value: "sat", want: true},
		{name: "last visit empty", key: KeyLastVisit, value: "", want: true},
		{name: "last visit unknown", key: KeyLastVisit, value: "xyz", want: false},
		{name: "last visit uppercase", key: KeyLastVisit, value: "SAT", want: false},
		{name: "last visit number", key: KeyLastVisit, value: 1, want: false},
		{name: "other key anything", key: "theme", value: map[string]any{"dark": true}, want: true},
		{name: "other key nil", key: "theme", value: nil, want: false},
		{name: "unserializable", key: "theme", value: make(chan int), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValid(tt.value, tt.key))
		})
	}
}

func TestValidateExplainsRejection(t *testing.T) {
	v := NewValidator()

	assert.ErrorIs(t, v.Validate(nil, KeyWidgets), errNilValue)
	assert.Error(t, v.Validate("xyz", KeyLastVisit))
	assert.NoError(t, v.Validate([]int{1, 2}, KeyWidgets))
}
