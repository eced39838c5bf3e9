package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/affilifind/backend/internal/domain"
)

// Dispatcher answers content-side messages
type Dispatcher interface {
	Handle(ctx context.Context, msg *domain.Message) (interface{}, error)
	CloseTab(ctx context.Context, tabID string) error
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	dispatcher Dispatcher
}

// NewHandler creates a new HTTP handler
func NewHandler(dispatcher Dispatcher) *Handler {
	return &Handler{dispatcher: dispatcher}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "affilifind-backend",
		"version": "1.0.0",
	})
}

// HandleMessage answers one message envelope. Operation failures are
// replied as {"error": ...} with status 200; only malformed envelopes and
// unknown message types are HTTP errors.
func (h *Handler) HandleMessage(c *gin.Context) {
	if h.dispatcher == nil {
		c.JSON(http.StatusServiceUnavailable, domain.ErrorResponse{Error: "background service not configured"})
		return
	}

	var msg domain.Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "invalid message: " + err.Error()})
		return
	}

	reply, err := h.dispatcher.Handle(c.Request.Context(), &msg)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownMessage) {
			c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: err.Error()})
			return
		}
		slog.Warn("message failed", "type", msg.Type, "tab", msg.TabID, "err", err)
		c.JSON(http.StatusOK, domain.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, reply)
}

// CloseTab forgets the state held for a closed tab
func (h *Handler) CloseTab(c *gin.Context) {
	if h.dispatcher == nil {
		c.JSON(http.StatusServiceUnavailable, domain.ErrorResponse{Error: "background service not configured"})
		return
	}

	if err := h.dispatcher.CloseTab(c.Request.Context(), c.Param("id")); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrInvalidRequest) {
			status = http.StatusBadRequest
		}
		c.JSON(status, domain.ErrorResponse{Error: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
