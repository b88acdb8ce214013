package handlers

import (
	"context"
	"net/http"

	"agendasmart/api/filters"
	"agendasmart/pkg/storage"

	"github.com/gin-gonic/gin"
)

// Store is the storage facade as used by the handlers.
type Store interface {
	GetItem(key string) any
	SetItem(key string, value any) bool
	RemoveItem(key string, alsoRemote bool) bool
	Keys() []string
	SyncFromRemote(ctx context.Context, force bool) bool
	ForceSync(ctx context.Context) bool
	DiagnoseData(ctx context.Context) []string
	Remote() *storage.RemoteClient
}

// KVHandler serves the key routes.
type KVHandler struct {
	store Store
}

// NewKVHandler creates the key handler.
func NewKVHandler(store Store) *KVHandler {
	return &KVHandler{store: store}
}

type putItemBody struct {
	Value any `json:"value"`
}

// ListKeys returns the logical keys of the local store.
func (h *KVHandler) ListKeys(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"keys": h.store.Keys()})
}

// GetItem returns the cached value, or the remote one when asked.
func (h *KVHandler) GetItem(c *gin.Context) {
	var qp filters.KVQueryParams
	if err := c.ShouldBindQuery(&qp); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key := c.Param("key")

	var value any
	if qp.Remote {
		if !h.store.Remote().Enabled() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "remote store is not configured"})
			return
		}
		value = h.store.Remote().Fetch(c.Request.Context(), key)
	} else {
		value = h.store.GetItem(key)
	}

	if value == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "key not found", "key": key})
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": key, "value": value})
}

// PutItem validates and stores the value of the body.
func (h *KVHandler) PutItem(c *gin.Context) {
	var body putItemBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key := c.Param("key")
	if !h.store.SetItem(key, body.Value) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "value rejected", "key": key})
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": key, "stored": true})
}

// DeleteItem removes the entry, and the remote row with remote=true.
func (h *KVHandler) DeleteItem(c *gin.Context) {
	var qp filters.KVQueryParams
	if err := c.ShouldBindQuery(&qp); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key := c.Param("key")
	if !h.store.RemoveItem(key, qp.Remote) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "couldn't remove key", "key": key})
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": key, "removed": true})
}
