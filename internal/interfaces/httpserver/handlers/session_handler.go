package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/chatcart/session-api/internal/domain/chat"
	"github.com/chatcart/session-api/internal/infrastructure/metrics"
	"github.com/chatcart/session-api/internal/infrastructure/observability"
	"github.com/chatcart/session-api/internal/interfaces/httpserver/requests"
	"github.com/chatcart/session-api/internal/interfaces/httpserver/responses"
)

// SessionService is the conversation actor facade consumed by the handler.
type SessionService interface {
	Append(ctx context.Context, sessionID string, msg chat.MessageRecord) (int, error)
	List(ctx context.Context, sessionID string, limit int) ([]chat.MessageRecord, error)
	Count(ctx context.Context, sessionID string) (int, error)
	Clear(ctx context.Context, sessionID string) error
	Metadata(ctx context.Context, sessionID string) (chat.SessionMetadata, error)
	UpdateMetadata(ctx context.Context, sessionID string, patch chat.MetadataPatch) (chat.SessionMetadata, error)
	Archive(ctx context.Context, sessionID string) (int, error)
}

// SessionHandler exposes the conversation actor surface.
type SessionHandler struct {
	service SessionService
	log     zerolog.Logger
}

// NewSessionHandler constructs the handler.
func NewSessionHandler(service SessionService, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		service: service,
		log:     log.With().Str("handler", "session").Logger(),
	}
}

// Append handles POST /v1/sessions/:session_id/messages.
func (h *SessionHandler) Append(c *gin.Context) {
	sessionID := c.Param("session_id")

	var req requests.AppendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, responses.ErrorResponse{Error: "invalid request body"})
		return
	}

	ctx, span := observability.StartSessionSpan(c.Request.Context(), "append", sessionID)
	defer span.End()

	count, err := h.service.Append(ctx, sessionID, req.ToRecord())
	if err != nil {
		observability.RecordError(span, err)
		responses.HandleError(c, err, "failed to append message")
		return
	}

	metrics.MessagesAppended.Inc()
	c.JSON(http.StatusOK, responses.AppendResponse{Count: count})
}

// List handles GET /v1/sessions/:session_id/messages.
func (h *SessionHandler) List(c *gin.Context) {
	sessionID := c.Param("session_id")

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, responses.ErrorResponse{Error: "limit must be a non-negative integer"})
			return
		}
		limit = parsed
	}

	messages, err := h.service.List(c.Request.Context(), sessionID, limit)
	if err != nil {
		responses.HandleError(c, err, "failed to list messages")
		return
	}
	if messages == nil {
		messages = []chat.MessageRecord{}
	}

	c.JSON(http.StatusOK, responses.MessagesResponse{Messages: messages})
}

// Clear handles DELETE /v1/sessions/:session_id/messages.
func (h *SessionHandler) Clear(c *gin.Context) {
	sessionID := c.Param("session_id")

	if err := h.service.Clear(c.Request.Context(), sessionID); err != nil {
		responses.HandleError(c, err, "failed to clear messages")
		return
	}

	c.JSON(http.StatusOK, responses.ClearedResponse{Cleared: true})
}

// Count handles GET /v1/sessions/:session_id/messages/count.
func (h *SessionHandler) Count(c *gin.Context) {
	sessionID := c.Param("session_id")

	count, err := h.service.Count(c.Request.Context(), sessionID)
	if err != nil {
		responses.HandleError(c, err, "failed to count messages")
		return
	}

	c.JSON(http.StatusOK, responses.CountResponse{Count: count})
}

// GetMetadata handles GET /v1/sessions/:session_id/metadata.
func (h *SessionHandler) GetMetadata(c *gin.Context) {
	sessionID := c.Param("session_id")

	meta, err := h.service.Metadata(c.Request.Context(), sessionID)
	if err != nil {
		responses.HandleError(c, err, "failed to load metadata")
		return
	}

	c.JSON(http.StatusOK, responses.MetadataResponse{Metadata: meta})
}

// UpdateMetadata handles PATCH /v1/sessions/:session_id/metadata.
func (h *SessionHandler) UpdateMetadata(c *gin.Context) {
	sessionID := c.Param("session_id")

	var req requests.UpdateMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, responses.ErrorResponse{Error: "invalid request body"})
		return
	}

	meta, err := h.service.UpdateMetadata(c.Request.Context(), sessionID, req.ToPatch())
	if err != nil {
		responses.HandleError(c, err, "failed to update metadata")
		return
	}

	c.JSON(http.StatusOK, responses.MetadataResponse{Metadata: meta})
}

// Archive handles POST /v1/sessions/:session_id/archive.
func (h *SessionHandler) Archive(c *gin.Context) {
	sessionID := c.Param("session_id")

	ctx, span := observability.StartSessionSpan(c.Request.Context(), "archive", sessionID)
	defer span.End()

	archived, err := h.service.Archive(ctx, sessionID)
	if err != nil {
		observability.RecordError(span, err)
		responses.HandleError(c, err, "failed to archive messages")
		return
	}

	observability.AddArchiveEvent(span, archived)
	metrics.MessagesArchived.Add(float64(archived))
	c.JSON(http.StatusOK, responses.ArchiveResponse{Archived: archived})
}
