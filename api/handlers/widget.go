package handlers

import (
	"net/http"
	"strings"

	"agendasmart/api/filters"
	"agendasmart/pkg/routine"

	"github.com/gin-gonic/gin"
)

// WidgetHandler serves the home screen widgets.
type WidgetHandler struct {
	store routine.Store
}

func NewWidgetHandler(store routine.Store) *WidgetHandler {
	return &WidgetHandler{store: store}
}

type plateBody struct {
	Digit *int `json:"digit" binding:"required"`
}

type itemBody struct {
	Text string `json:"text"`
}

// List returns the widgets, only the home screen ones with home=true.
func (h *WidgetHandler) List(c *gin.Context) {
	var qp filters.WidgetQueryParams
	if err := c.ShouldBindQuery(&qp); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if qp.Home {
		c.JSON(http.StatusOK, gin.H{"widgets": routine.HomeWidgets(h.store)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"widgets": routine.Widgets(h.store)})
}

// Add creates a widget.
func (h *WidgetHandler) Add(c *gin.Context) {
	var w routine.Widget
	if err := c.ShouldBindJSON(&w); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(w.Type) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type is required"})
		return
	}

	saved, err := routine.AddWidget(h.store, w)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

// Clear removes every widget.
func (h *WidgetHandler) Clear(c *gin.Context) {
	if err := routine.ClearWidgets(h.store); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

// Toggle shows or hides a widget.
func (h *WidgetHandler) Toggle(c *gin.Context) {
	w, err := routine.ToggleWidget(h.store, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// Delete removes a widget.
func (h *WidgetHandler) Delete(c *gin.Context) {
	if err := routine.DeleteWidget(h.store, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "removed": true})
}

// SetPlate stores the plate digit of a pico y placa widget.
func (h *WidgetHandler) SetPlate(c *gin.Context) {
	var body plateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	w, err := routine.SetPlateDigit(h.store, c.Param("id"), *body.Digit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// AddItem appends an item to a market, notes or quotes widget.
func (h *WidgetHandler) AddItem(c *gin.Context) {
	var body itemBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := routine.AddWidgetItem(h.store, c.Param("id"), body.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// EditItem replaces the text of an item.
func (h *WidgetHandler) EditItem(c *gin.Context) {
	var body itemBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	w, err := routine.EditWidgetItem(h.store, c.Param("id"), c.Param("itemId"), body.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// ToggleItem flips the done flag of an item.
func (h *WidgetHandler) ToggleItem(c *gin.Context) {
	w, err := routine.ToggleWidgetItem(h.store, c.Param("id"), c.Param("itemId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// DeleteItem removes an item.
func (h *WidgetHandler) DeleteItem(c *gin.Context) {
	w, err := routine.DeleteWidgetItem(h.store, c.Param("id"), c.Param("itemId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}
