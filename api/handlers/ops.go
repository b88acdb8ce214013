package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OpsHandler serves the health check and the metrics.
type OpsHandler struct {
	store   Store
	metrics http.Handler
}

func NewOpsHandler(store Store) *OpsHandler {
	return &OpsHandler{store: store, metrics: promhttp.Handler()}
}

// Health reports the service is up and whether the remote side is configured.
func (h *OpsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "remote": h.store.Remote().Enabled()})
}

// Metrics exposes the prometheus registry.
func (h *OpsHandler) Metrics(c *gin.Context) {
	h.metrics.ServeHTTP(c.Writer, c.Request)
}
