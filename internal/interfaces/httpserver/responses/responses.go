package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chatcart/session-api/internal/domain/chat"
	"github.com/chatcart/session-api/internal/utils/apperrors"
)

// ErrorResponse is the error envelope returned to clients.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// HandleError maps domain and application errors onto HTTP responses.
// Validation failures from the chat domain become 400s; typed AppErrors
// carry their own status; anything else is a 500.
func HandleError(reqCtx *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, chat.ErrMissingRole),
		errors.Is(err, chat.ErrInvalidRole),
		errors.Is(err, chat.ErrMissingContent):
		reqCtx.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
			Error:     err.Error(),
			RequestID: apperrors.RequestIDFrom(reqCtx.Request.Context()),
		})
		return
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		reqCtx.AbortWithStatusJSON(appErr.HTTPStatus(), ErrorResponse{
			Error:     message,
			Code:      appErr.Code,
			RequestID: appErr.RequestID,
		})
		return
	}

	reqCtx.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
		Error:     message,
		RequestID: apperrors.RequestIDFrom(reqCtx.Request.Context()),
	})
}

// AppendResponse returns the new live log length.
type AppendResponse struct {
	Count int `json:"count"`
}

// MessagesResponse wraps the live log slice.
type MessagesResponse struct {
	Messages []chat.MessageRecord `json:"messages"`
}

// ClearedResponse acknowledges a clear.
type ClearedResponse struct {
	Cleared bool `json:"cleared"`
}

// CountResponse returns the live log length.
type CountResponse struct {
	Count int `json:"count"`
}

// MetadataResponse wraps the session metadata.
type MetadataResponse struct {
	Metadata chat.SessionMetadata `json:"metadata"`
}

// ArchiveResponse reports how many messages were moved.
type ArchiveResponse struct {
	Archived int `json:"archived"`
}

// ConsumeResponse reports an allowed admission.
type ConsumeResponse struct {
	Allowed   bool `json:"allowed"`
	Tokens    int  `json:"tokens"`
	MaxTokens int  `json:"max_tokens"`
}

// ThrottledResponse reports a denied admission with the retry hint in
// milliseconds.
type ThrottledResponse struct {
	Allowed    bool  `json:"allowed"`
	Tokens     int   `json:"tokens"`
	MaxTokens  int   `json:"max_tokens"`
	RetryAfter int64 `json:"retry_after"`
}

// CheckResponse reports bucket state without consuming.
type CheckResponse struct {
	Tokens     int   `json:"tokens"`
	MaxTokens  int   `json:"max_tokens"`
	LastRefill int64 `json:"last_refill"`
}

// ResetResponse acknowledges a bucket reset.
type ResetResponse struct {
	Reset  bool `json:"reset"`
	Tokens int  `json:"tokens"`
}
