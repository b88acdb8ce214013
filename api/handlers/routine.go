package handlers

import (
	"errors"
	"net/http"
	"time"

	"agendasmart/api/filters"
	"agendasmart/pkg/routine"

	"github.com/gin-gonic/gin"
)

// RoutineHandler serves the routines and the notification settings.
type RoutineHandler struct {
	store routine.Store
	now   func() time.Time
}

func NewRoutineHandler(store routine.Store) *RoutineHandler {
	return &RoutineHandler{store: store, now: time.Now}
}

type routineBody struct {
	Name string                     `json:"name" binding:"required"`
	Days map[string][]routine.Event `json:"days"`
}

type activateBody struct {
	ID string `json:"id"`
}

type settingsBody struct {
	BeforeStart *int `json:"notifyBeforeStart"`
	BeforeEnd   *int `json:"notifyBeforeEnd"`
}

// writeError maps the routine errors to a status.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, routine.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, routine.ErrWidgetLimit):
		status = http.StatusConflict
	case errors.Is(err, routine.ErrInvalidRoutine),
		errors.Is(err, routine.ErrEmptyText),
		errors.Is(err, routine.ErrNoItems):
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// List returns every routine and the active id.
func (h *RoutineHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"routines":        routine.List(h.store),
		"activeRoutineId": routine.ActiveID(h.store),
	})
}

// bind reads and checks the routine of the body.
func (h *RoutineHandler) bind(c *gin.Context) (routine.Routine, bool) {
	var body routineBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return routine.Routine{}, false
	}

	r := routine.Routine{Name: body.Name, Days: body.Days}
	if err := routine.Validate(r); err != nil {
		writeError(c, err)
		return routine.Routine{}, false
	}
	return r, true
}

// Create stores a new routine.
func (h *RoutineHandler) Create(c *gin.Context) {
	r, ok := h.bind(c)
	if !ok {
		return
	}

	saved, err := routine.Put(h.store, r)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

// Get returns a routine by id.
func (h *RoutineHandler) Get(c *gin.Context) {
	r, ok := routine.Find(h.store, c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "routine not found", "id": c.Param("id")})
		return
	}
	c.JSON(http.StatusOK, r)
}

// Update replaces an existing routine.
func (h *RoutineHandler) Update(c *gin.Context) {
	id := c.Param("id")
	if _, ok := routine.Find(h.store, id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "routine not found", "id": id})
		return
	}

	r, ok := h.bind(c)
	if !ok {
		return
	}
	r.ID = id

	saved, err := routine.Put(h.store, r)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

// Delete removes a routine.
func (h *RoutineHandler) Delete(c *gin.Context) {
	if err := routine.Delete(h.store, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "removed": true})
}

// Duplicate copies a routine.
func (h *RoutineHandler) Duplicate(c *gin.Context) {
	copied, err := routine.Duplicate(h.store, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, copied)
}

// Active returns the selected routine.
func (h *RoutineHandler) Active(c *gin.Context) {
	r, ok := routine.Active(h.store)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active routine"})
		return
	}
	c.JSON(http.StatusOK, r)
}

// Activate selects a routine, an empty id clears the selection.
func (h *RoutineHandler) Activate(c *gin.Context) {
	var body activateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if body.ID != "" {
		if _, ok := routine.Find(h.store, body.ID); !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "routine not found", "id": body.ID})
			return
		}
	}

	if err := routine.Activate(h.store, body.ID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activeRoutineId": body.ID})
}

// Today returns the events of the active routine for a date.
func (h *RoutineHandler) Today(c *gin.Context) {
	var qp filters.TodayQueryParams
	if err := c.ShouldBindQuery(&qp); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	day := h.now()
	if qp.Date != "" {
		parsed, err := time.Parse(time.DateOnly, qp.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		day = parsed
	}

	c.JSON(http.StatusOK, gin.H{
		"day":    routine.DayCode(day),
		"events": routine.Today(h.store, day),
	})
}

// Settings returns the notification settings.
func (h *RoutineHandler) Settings(c *gin.Context) {
	c.JSON(http.StatusOK, routine.NotificationSettings(h.store))
}

// UpdateSettings changes the given notification settings.
func (h *RoutineHandler) UpdateSettings(c *gin.Context) {
	var body settingsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings := routine.NotificationSettings(h.store)
	if body.BeforeStart != nil {
		settings.BeforeStart = *body.BeforeStart
	}
	if body.BeforeEnd != nil {
		settings.BeforeEnd = *body.BeforeEnd
	}

	if err := routine.SetNotificationSettings(h.store, settings); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, routine.NotificationSettings(h.store))
}
