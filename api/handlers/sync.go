package handlers

import (
	"net/http"

	"agendasmart/api/filters"

	"github.com/gin-gonic/gin"
)

// SyncHandler serves the reconciliation routes.
type SyncHandler struct {
	store Store
}

func NewSyncHandler(store Store) *SyncHandler {
	return &SyncHandler{store: store}
}

func (h *SyncHandler) result(c *gin.Context, ok bool) {
	switch {
	case !h.store.Remote().Enabled():
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "remote store is not configured"})
	case !ok:
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": "some keys couldn't be synced"})
	default:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// Sync pulls the remote table into the local store.
func (h *SyncHandler) Sync(c *gin.Context) {
	var qp filters.SyncQueryParams
	if err := c.ShouldBindQuery(&qp); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.result(c, h.store.SyncFromRemote(c.Request.Context(), qp.Force))
}

// ForceSync reconciles both sides.
func (h *SyncHandler) ForceSync(c *gin.Context) {
	h.result(c, h.store.ForceSync(c.Request.Context()))
}

// Diagnose reports the state of the critical keys.
func (h *SyncHandler) Diagnose(c *gin.Context) {
	issues := h.store.DiagnoseData(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"healthy": len(issues) == 0, "issues": issues})
}
