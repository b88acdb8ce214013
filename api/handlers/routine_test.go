package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"agendasmart/pkg/routine"
	"agendasmart/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const officeWeek = `{"name":"Office","days":{"mon":[{"title":"Standup","start":"09:30","end":"09:45"},{"title":"Gym","start":"07:00","end":"08:00"}]}}`

func TestCreateAndListRoutines(t *testing.T) {
	engine, env := newTestServer(t)

	w := do(engine, http.MethodPost, "/api/v1/routines", officeWeek)
	require.Equal(t, http.StatusCreated, w.Code)

	var created routine.Routine
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Len(t, created.Days, len(storage.Weekdays))
	require.Len(t, created.Days["mon"], 2)
	assert.Equal(t, "Gym", created.Days["mon"][0].Title)

	stored, ok := routine.Find(env.Facade, created.ID)
	require.True(t, ok)
	assert.Equal(t, "Office", stored.Name)

	w = do(engine, http.MethodGet, "/api/v1/routines", "")
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Len(t, out["routines"], 1)
	assert.Equal(t, "", out["activeRoutineId"])
}

func TestCreateRoutineRejected(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{"not json", `{`, http.StatusBadRequest},
		{"missing name", `{"days":{}}`, http.StatusBadRequest},
		{"unknown day", `{"name":"x","days":{"funday":[]}}`, http.StatusUnprocessableEntity},
		{"event without title", `{"name":"x","days":{"mon":[{"start":"09:00","end":"10:00"}]}}`, http.StatusUnprocessableEntity},
		{"bad clock", `{"name":"x","days":{"mon":[{"title":"a","start":"9am","end":"10:00"}]}}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, env := newTestServer(t)

			w := do(engine, http.MethodPost, "/api/v1/routines", tt.body)

			assert.Equal(t, tt.code, w.Code)
			assert.Empty(t, routine.List(env.Facade))
		})
	}
}

func TestRoutineByID(t *testing.T) {
	engine, env := newTestServer(t)
	r := routine.New("Home")
	require.NoError(t, routine.Save(env.Facade, r))

	w := do(engine, http.MethodGet, "/api/v1/routines/"+r.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Home", decode(t, w)["name"])

	w = do(engine, http.MethodPut, "/api/v1/routines/"+r.ID, `{"name":"Weekend","days":{"sat":[{"title":"Market","start":"10:00","end":"11:00"}]}}`)
	require.Equal(t, http.StatusOK, w.Code)
	updated, ok := routine.Find(env.Facade, r.ID)
	require.True(t, ok)
	assert.Equal(t, "Weekend", updated.Name)
	assert.Len(t, updated.Days["sat"], 1)
	assert.Len(t, routine.List(env.Facade), 1)

	w = do(engine, http.MethodPost, "/api/v1/routines/"+r.ID+"/duplicate", "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotEqual(t, r.ID, decode(t, w)["id"])
	assert.Len(t, routine.List(env.Facade), 2)

	w = do(engine, http.MethodDelete, "/api/v1/routines/"+r.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	_, ok = routine.Find(env.Facade, r.ID)
	assert.False(t, ok)
}

func TestMissingRoutine(t *testing.T) {
	tests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/api/v1/routines/r_missing", ""},
		{http.MethodPut, "/api/v1/routines/r_missing", officeWeek},
		{http.MethodDelete, "/api/v1/routines/r_missing", ""},
		{http.MethodPost, "/api/v1/routines/r_missing/duplicate", ""},
		{http.MethodGet, "/api/v1/routines/active", ""},
		{http.MethodPut, "/api/v1/routines/active", `{"id":"r_missing"}`},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			engine, env := newTestServer(t)

			w := do(engine, tt.method, tt.path, tt.body)

			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.Empty(t, routine.List(env.Facade))
		})
	}
}

func TestActivateAndToday(t *testing.T) {
	engine, env := newTestServer(t)
	r := routine.New("Office")
	r.Days["mon"] = []routine.Event{{Title: "Standup", Start: "09:30", End: "09:45"}}
	require.NoError(t, routine.Save(env.Facade, r))

	w := do(engine, http.MethodPut, "/api/v1/routines/active", `{"id":"`+r.ID+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, r.ID, routine.ActiveID(env.Facade))

	w = do(engine, http.MethodGet, "/api/v1/routines/active", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, r.ID, decode(t, w)["id"])

	w = do(engine, http.MethodGet, "/api/v1/routines/today?date=2024-03-04", "")
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, "mon", out["day"])
	assert.Len(t, out["events"], 1)

	w = do(engine, http.MethodGet, "/api/v1/routines/today?date=2024-03-05", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["events"])

	assert.Equal(t, http.StatusBadRequest, do(engine, http.MethodGet, "/api/v1/routines/today?date=monday", "").Code)

	w = do(engine, http.MethodPut, "/api/v1/routines/active", `{"id":""}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", routine.ActiveID(env.Facade))
}

func TestNotificationSettingsRoutes(t *testing.T) {
	engine, env := newTestServer(t)

	w := do(engine, http.MethodGet, "/api/v1/notifications/settings", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(routine.DefaultBeforeStart), decode(t, w)["notifyBeforeStart"])

	w = do(engine, http.MethodPut, "/api/v1/notifications/settings", `{"notifyBeforeEnd":-3}`)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, float64(routine.DefaultBeforeStart), out["notifyBeforeStart"])
	assert.Equal(t, float64(0), out["notifyBeforeEnd"])

	w = do(engine, http.MethodPut, "/api/v1/notifications/settings", `{"notifyBeforeStart":15}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, routine.Settings{BeforeStart: 15, BeforeEnd: 0}, routine.NotificationSettings(env.Facade))

	assert.Equal(t, http.StatusBadRequest, do(engine, http.MethodPut, "/api/v1/notifications/settings", `{"notifyBeforeStart":"soon"}`).Code)
}
