package handlers

import (
	"errors"
	"io"
	"net/http"

	"agendasmart/api/filters"
	"agendasmart/api/services"
	"agendasmart/pkg/snapshot"

	"github.com/gin-gonic/gin"
)

// maxImportSize bounds the body of an import.
const maxImportSize = 4 << 20

// SnapshotHandler serves the routines export and import.
type SnapshotHandler struct {
	snapshotService *services.SnapshotService
}

func NewSnapshotHandler(service *services.SnapshotService) *SnapshotHandler {
	return &SnapshotHandler{snapshotService: service}
}

// Export returns the routines document, or uploads it with bucket=true.
func (h *SnapshotHandler) Export(c *gin.Context) {
	var qp filters.ExportQueryParams
	if err := c.ShouldBindQuery(&qp); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !qp.Bucket {
		c.Header("Content-Disposition", `attachment; filename="`+snapshot.FileName+`"`)
		c.JSON(http.StatusOK, h.snapshotService.Export())
		return
	}

	key, err := h.snapshotService.Upload(c.Request.Context())
	if err != nil {
		c.JSON(bucketStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"key": key})
}

// Import applies the document of the body, or the bucket snapshot named by key.
func (h *SnapshotHandler) Import(c *gin.Context) {
	var qp filters.ImportQueryParams
	if err := c.ShouldBindQuery(&qp); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		result snapshot.Result
		err    error
	)
	if qp.Key != "" {
		result, err = h.snapshotService.Restore(c.Request.Context(), qp.Key)
	} else {
		var data []byte
		data, err = io.ReadAll(io.LimitReader(c.Request.Body, maxImportSize))
		if err == nil {
			result, err = h.snapshotService.Import(data)
		}
	}

	if err != nil {
		status := bucketStatus(err)
		if errors.Is(err, snapshot.ErrInvalidDocument) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

func bucketStatus(err error) int {
	if errors.Is(err, services.ErrBucketNotConfigured) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
