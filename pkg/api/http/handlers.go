package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/aescanero/dagsys/pkg/domain"
	"github.com/aescanero/dagsys/pkg/ports"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// PutRequest is the body of PUT /api/v1/kv/:key
type PutRequest struct {
	Value *string `json:"value" binding:"required"`
}

// KeysResponse lists stored keys
type KeysResponse struct {
	Keys  []string `json:"keys"`
	Total int      `json:"total"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type handlers struct {
	db       KeyValue
	status   StatusSource
	gatherer prometheus.Gatherer
	logger   *zap.Logger
}

// handleHealth reports healthy while the system is started
func (h *handlers) handleHealth(c *gin.Context) {
	state := "unknown"
	healthy := true
	if h.status != nil {
		state = h.status.Status().State
		healthy = state == domain.StateStarted.String() || state == domain.StateStarting.String()
	}

	code := http.StatusOK
	status := "healthy"
	if !healthy {
		code = http.StatusServiceUnavailable
		status = "unhealthy"
	}

	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks": gin.H{
			"system": state,
		},
	})
}

// handleSystemStatus returns the system status snapshot
func (h *handlers) handleSystemStatus(c *gin.Context) {
	if h.status == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: ErrorDetail{
				Code:    "NOT_AVAILABLE",
				Message: "System status is not available",
			},
		})
		return
	}

	c.JSON(http.StatusOK, h.status.Status())
}

// handleListKeys lists stored keys
func (h *handlers) handleListKeys(c *gin.Context) {
	keys, err := h.db.List(c.Request.Context())
	if err != nil {
		h.storageError(c, err)
		return
	}
	if keys == nil {
		keys = []string{}
	}

	c.JSON(http.StatusOK, KeysResponse{Keys: keys, Total: len(keys)})
}

// handleGetKey returns a single record
func (h *handlers) handleGetKey(c *gin.Context) {
	key := c.Param("key")

	rec, err := h.db.Get(c.Request.Context(), key)
	if err != nil {
		h.storageError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// handlePutKey stores a record
func (h *handlers) handlePutKey(c *gin.Context) {
	key := c.Param("key")

	var req PutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("invalid request", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}

	rec, err := h.db.Put(c.Request.Context(), key, *req.Value)
	if err != nil {
		h.storageError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// handleDeleteKey removes a record
func (h *handlers) handleDeleteKey(c *gin.Context) {
	key := c.Param("key")

	if err := h.db.Delete(c.Request.Context(), key); err != nil {
		h.storageError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *handlers) storageError(c *gin.Context, err error) {
	if errors.Is(err, ports.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: ErrorDetail{
				Code:    "NOT_FOUND",
				Message: "Key not found",
			},
		})
		return
	}

	h.logger.Error("storage operation failed",
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error: ErrorDetail{
			Code:    "STORAGE_ERROR",
			Message: err.Error(),
		},
	})
}
