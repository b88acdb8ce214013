package routine

import (
	"fmt"
	"strconv"
	"time"
)

const (
	KeyNotifyBeforeStart = "notifyBeforeStart"
	KeyNotifyBeforeEnd   = "notifyBeforeEnd"

	// notifiedPrefix keys the ids of the notifications already sent on a date.
	notifiedPrefix = "notified:"

	DefaultBeforeStart = 10
	DefaultBeforeEnd   = 5
)

// Settings are the minutes of notice before an event starts and ends.
type Settings struct {
	BeforeStart int `json:"notifyBeforeStart"`
	BeforeEnd   int `json:"notifyBeforeEnd"`
}

// Boundary of an event that triggers a notification.
type Boundary string

const (
	Start Boundary = "start"
	End   Boundary = "end"
)

// Notification is an event boundary that is due now.
type Notification struct {
	ID        string    `json:"id"`
	RoutineID string    `json:"routineId"`
	EventID   string    `json:"eventId"`
	Title     string    `json:"title"`
	Boundary  Boundary  `json:"boundary"`
	At        time.Time `json:"at"`
	Message   string    `json:"message"`
}

// NotificationSettings returns the stored settings with the defaults for missing values.
func NotificationSettings(store Store) Settings {
	return Settings{
		BeforeStart: minutes(store.GetItem(KeyNotifyBeforeStart), DefaultBeforeStart),
		BeforeEnd:   minutes(store.GetItem(KeyNotifyBeforeEnd), DefaultBeforeEnd),
	}
}

// SetNotificationSettings stores the settings, negative values become zero.
func SetNotificationSettings(store Store, s Settings) error {
	if !store.SetItem(KeyNotifyBeforeStart, max(0, s.BeforeStart)) {
		return fmt.Errorf("couldn't store %s", KeyNotifyBeforeStart)
	}
	if !store.SetItem(KeyNotifyBeforeEnd, max(0, s.BeforeEnd)) {
		return fmt.Errorf("couldn't store %s", KeyNotifyBeforeEnd)
	}
	return nil
}

func minutes(value any, fallback int) int {
	var n int
	switch v := value.(type) {
	case float64:
		n = int(v)
	case string:
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return fallback
		}
		n = parsed
	default:
		return fallback
	}
	return max(0, n)
}

// NotifiedKey is the key holding the notifications sent on the date of t.
func NotifiedKey(t time.Time) string {
	return notifiedPrefix + t.Format(time.DateOnly)
}

// DueNotifications returns the notifications of the active routine due in the minute of now,
// and records them so that they are returned only once.
func DueNotifications(store Store, now time.Time) []Notification {
	r, ok := Active(store)
	if !ok {
		return []Notification{}
	}

	settings := NotificationSettings(store)
	key := NotifiedKey(now)

	var sent []string
	store.GetInto(key, &sent)
	seen := make(map[string]struct{}, len(sent))
	for _, id := range sent {
		seen[id] = struct{}{}
	}

	current := now.Hour()*60 + now.Minute()

	// Boundaries shortly after midnight are announced from the previous day.
	days := []struct {
		code     string
		midnight time.Time
		offset   int
	}{
		{DayCode(now), time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), 0},
		{DayCode(now.AddDate(0, 0, 1)), time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location()), 24 * 60},
	}

	due := []Notification{}
	for _, day := range days {
		for _, ev := range r.Days[day.code] {
			due = appendDue(due, r, ev, day.midnight, day.offset, current, settings, seen, &sent)
		}
	}

	if len(due) > 0 {
		store.SetItem(key, sent)
	}
	return due
}

// appendDue adds the boundaries of ev due at the current minute that were not sent yet.
// offset is the distance in minutes from today's midnight to the midnight of the event day.
func appendDue(due []Notification, r Routine, ev Event, midnight time.Time, offset, current int, settings Settings, seen map[string]struct{}, sent *[]string) []Notification {
	for _, b := range []struct {
		boundary Boundary
		clock    string
		notice   int
	}{
		{Start, ev.Start, settings.BeforeStart},
		{End, ev.End, settings.BeforeEnd},
	} {
		at, err := ParseClock(b.clock)
		if err != nil || offset+at-b.notice != current {
			continue
		}

		id := ev.ID + ":" + string(b.boundary)
		if _, done := seen[id]; done {
			continue
		}
		seen[id] = struct{}{}
		*sent = append(*sent, id)

		due = append(due, Notification{
			ID:        id,
			RoutineID: r.ID,
			EventID:   ev.ID,
			Title:     ev.Title,
			Boundary:  b.boundary,
			At:        midnight.Add(time.Duration(at) * time.Minute),
			Message:   message(ev.Title, b.boundary, b.notice),
		})
	}
	return due
}

func message(title string, b Boundary, notice int) string {
	verb := "starts"
	if b == End {
		verb = "ends"
	}
	if notice == 0 {
		return fmt.Sprintf("%s %s now", title, verb)
	}
	return fmt.Sprintf("%s %s in %d min", title, verb, notice)
}
