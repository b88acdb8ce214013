package routine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationSettings(t *testing.T) {
	store := newStore(t)

	assert.Equal(t, Settings{BeforeStart: 10, BeforeEnd: 5}, NotificationSettings(store))

	require.NoError(t, SetNotificationSettings(store, Settings{BeforeStart: 15, BeforeEnd: -3}))
	assert.Equal(t, Settings{BeforeStart: 15, BeforeEnd: 0}, NotificationSettings(store))

	require.True(t, store.SetItem(KeyNotifyBeforeStart, "20"))
	require.True(t, store.SetItem(KeyNotifyBeforeEnd, "soon"))
	assert.Equal(t, Settings{BeforeStart: 20, BeforeEnd: 5}, NotificationSettings(store))
}

func TestDueNotifications(t *testing.T) {
	store := newStore(t)
	r := New("Week")
	r.Days["mon"] = []Event{
		{ID: "e1", Title: "Standup", Start: "09:00", End: "09:15"},
		{ID: "e2", Title: "Lunch", Start: "12:00", End: "13:00"},
		{ID: "bad", Title: "Broken", Start: "later", End: "never"},
	}
	require.NoError(t, Save(store, r))
	require.NoError(t, Activate(store, r.ID))

	monday := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

	due := DueNotifications(store, monday.Add(8*time.Hour+50*time.Minute+20*time.Second))
	require.Len(t, due, 1)
	assert.Equal(t, "e1:start", due[0].ID)
	assert.Equal(t, Start, due[0].Boundary)
	assert.Equal(t, monday.Add(9*time.Hour), due[0].At)
	assert.Equal(t, "Standup starts in 10 min", due[0].Message)

	// Already sent in this minute.
	assert.Empty(t, DueNotifications(store, monday.Add(8*time.Hour+50*time.Minute+50*time.Second)))

	due = DueNotifications(store, monday.Add(9*time.Hour+10*time.Minute))
	require.Len(t, due, 1)
	assert.Equal(t, "e1:end", due[0].ID)
	assert.Equal(t, "Standup ends in 5 min", due[0].Message)

	var sent []string
	require.True(t, store.GetInto(NotifiedKey(monday), &sent))
	assert.Equal(t, []string{"e1:start", "e1:end"}, sent)

	// Nothing is due on other days.
	assert.Empty(t, DueNotifications(store, monday.AddDate(0, 0, 1).Add(8*time.Hour+50*time.Minute)))
}

func TestDueNotificationsWithoutNotice(t *testing.T) {
	store := newStore(t)
	r := New("Week")
	r.Days["mon"] = []Event{{ID: "e1", Title: "Standup", Start: "09:00", End: "09:15"}}
	require.NoError(t, Save(store, r))
	require.NoError(t, Activate(store, r.ID))
	require.NoError(t, SetNotificationSettings(store, Settings{}))

	due := DueNotifications(store, time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC))

	require.Len(t, due, 1)
	assert.Equal(t, "Standup starts now", due[0].Message)
}

func TestDueNotificationsWithoutActiveRoutine(t *testing.T) {
	store := newStore(t)

	assert.Empty(t, DueNotifications(store, time.Now()))
}

func TestNotifiedKey(t *testing.T) {
	assert.Equal(t, "notified:2024-03-04", NotifiedKey(time.Date(2024, time.March, 4, 23, 59, 0, 0, time.UTC)))
}

func TestDueNotificationsAnnounceEarlyEventsTheDayBefore(t *testing.T) {
	store := newStore(t)
	r := New("Week")
	r.Days["tue"] = []Event{{ID: "e1", Title: "Night shift", Start: "00:05", End: "06:00"}}
	require.NoError(t, Save(store, r))
	require.NoError(t, Activate(store, r.ID))

	monday := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

	due := DueNotifications(store, monday.Add(23*time.Hour+55*time.Minute))
	require.Len(t, due, 1)
	assert.Equal(t, "e1:start", due[0].ID)
	assert.Equal(t, monday.AddDate(0, 0, 1).Add(5*time.Minute), due[0].At)
	assert.Equal(t, "Night shift starts in 10 min", due[0].Message)

	// The same minute on the event day matches nothing.
	assert.Empty(t, DueNotifications(store, monday.AddDate(0, 0, 1).Add(23*time.Hour+55*time.Minute)))
}
