// Package routine reads and edits the weekly routines, the home widgets and the notification state
// kept in the key/value store.
package routine

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"agendasmart/pkg/storage"

	"github.com/google/uuid"
)

// ErrNotFound is wrapped by the errors about a missing routine, widget or item.
var ErrNotFound = errors.New("not found")

// Store is the part of the storage facade used by routines.
type Store interface {
	GetItem(key string) any
	GetInto(key string, dst any) bool
	SetItem(key string, value any) bool
}

// Event is a time block of a routine day.
type Event struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Desc     string `json:"desc,omitempty"`
	Category string `json:"category,omitempty"`
	Color    string `json:"color,omitempty"`
	Start    string `json:"start"`
	End      string `json:"end"`
}

// Routine is a named week of events keyed by weekday code.
type Routine struct {
	ID   string             `json:"id"`
	Name string             `json:"name"`
	Days map[string][]Event `json:"days"`
}

// New creates an empty routine with every weekday present.
func New(name string) Routine {
	days := make(map[string][]Event, len(storage.Weekdays))
	for _, day := range storage.Weekdays {
		days[day] = []Event{}
	}
	return Routine{ID: "r_" + shortID(), Name: name, Days: days}
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Seed stores empty collections for the keys that have no usable value yet.
func Seed(store Store) {
	defaults := []struct {
		key   string
		value any
	}{
		{storage.KeyRoutines, []Routine{}},
		{storage.KeyWidgets, []Widget{}},
		{storage.KeyActiveRoutineID, ""},
	}

	for _, d := range defaults {
		if store.GetItem(d.key) == nil {
			store.SetItem(d.key, d.value)
		}
	}
}

// List returns the stored routines.
func List(store Store) []Routine {
	var routines []Routine
	if !store.GetInto(storage.KeyRoutines, &routines) {
		return []Routine{}
	}
	return routines
}

// ActiveID returns the id of the active routine, coercing scalars to a string.
func ActiveID(store Store) string {
	switch v := store.GetItem(storage.KeyActiveRoutineID).(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

// Find returns the routine id.
func Find(store Store, id string) (Routine, bool) {
	for _, r := range List(store) {
		if r.ID == id {
			return r, true
		}
	}
	return Routine{}, false
}

// Active returns the active routine, false when none is selected or it no longer exists.
func Active(store Store) (Routine, bool) {
	id := ActiveID(store)
	if id == "" {
		return Routine{}, false
	}
	return Find(store, id)
}

// Activate selects the routine id, an empty id clears the selection.
func Activate(store Store, id string) error {
	if !store.SetItem(storage.KeyActiveRoutineID, id) {
		return fmt.Errorf("couldn't activate routine %q", id)
	}
	return nil
}

// ErrInvalidRoutine is wrapped by the errors of Validate.
var ErrInvalidRoutine = errors.New("invalid routine")

// Validate checks that every event has a title and "HH:MM" boundaries, unknown day codes are rejected.
func Validate(r Routine) error {
	for day, events := range r.Days {
		if !slices.Contains(storage.Weekdays, day) {
			return fmt.Errorf("%w: unknown day %q", ErrInvalidRoutine, day)
		}
		for _, ev := range events {
			if strings.TrimSpace(ev.Title) == "" {
				return fmt.Errorf("%w: event on %s has no title", ErrInvalidRoutine, day)
			}
			if _, err := ParseClock(ev.Start); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidRoutine, err)
			}
			if _, err := ParseClock(ev.End); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidRoutine, err)
			}
		}
	}
	return nil
}

// Save replaces the routine with the same id or appends it. Day events are kept sorted by start.
func Save(store Store, r Routine) error {
	_, err := Put(store, r)
	return err
}

// prepare assigns the missing ids, keeps only the weekday codes and sorts each day by start.
func prepare(r Routine) Routine {
	if r.ID == "" {
		r.ID = "r_" + shortID()
	}

	days := make(map[string][]Event, len(storage.Weekdays))
	for _, day := range storage.Weekdays {
		events := append([]Event{}, r.Days[day]...)
		for i := range events {
			if events[i].ID == "" {
				events[i].ID = "e_" + shortID()
			}
		}
		sort.SliceStable(events, func(i, j int) bool { return events[i].Start < events[j].Start })
		days[day] = events
	}
	r.Days = days
	return r
}

// Put is Save returning the stored routine.
func Put(store Store, r Routine) (Routine, error) {
	r = prepare(r)

	routines := List(store)
	replaced := false
	for i := range routines {
		if routines[i].ID == r.ID {
			routines[i] = r
			replaced = true
		}
	}
	if !replaced {
		routines = append(routines, r)
	}

	if !store.SetItem(storage.KeyRoutines, routines) {
		return Routine{}, fmt.Errorf("couldn't save routine %s", r.ID)
	}
	return r, nil
}

// Duplicate copies the routine under a new id.
func Duplicate(store Store, id string) (Routine, error) {
	routines := List(store)
	for _, r := range routines {
		if r.ID != id {
			continue
		}

		copied := Routine{ID: "r_" + shortID(), Name: r.Name + " (copy)", Days: make(map[string][]Event, len(r.Days))}
		for day, events := range r.Days {
			copied.Days[day] = append([]Event{}, events...)
		}
		if !store.SetItem(storage.KeyRoutines, append(routines, copied)) {
			return Routine{}, fmt.Errorf("couldn't duplicate routine %s", id)
		}
		return copied, nil
	}
	return Routine{}, fmt.Errorf("routine %s: %w", id, ErrNotFound)
}

// Delete removes the routine, clearing the selection when it was the active one.
func Delete(store Store, id string) error {
	routines := List(store)
	kept := make([]Routine, 0, len(routines))
	for _, r := range routines {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(routines) {
		return fmt.Errorf("routine %s: %w", id, ErrNotFound)
	}

	if !store.SetItem(storage.KeyRoutines, kept) {
		return fmt.Errorf("couldn't delete routine %s", id)
	}
	if ActiveID(store) == id {
		store.SetItem(storage.KeyActiveRoutineID, "")
	}
	return nil
}

// DayCode returns the weekday code of t.
func DayCode(t time.Time) string {
	return storage.Weekdays[t.Weekday()]
}

// Today returns the events of the active routine for the day of now.
func Today(store Store, now time.Time) []Event {
	r, ok := Active(store)
	if !ok {
		return []Event{}
	}
	events := r.Days[DayCode(now)]
	if events == nil {
		return []Event{}
	}
	return events
}

// ParseClock converts "HH:MM" into minutes since midnight.
func ParseClock(hhmm string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(hhmm))
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", hhmm, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}
