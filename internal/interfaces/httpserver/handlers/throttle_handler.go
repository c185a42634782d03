package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/chatcart/session-api/internal/domain/throttle"
	"github.com/chatcart/session-api/internal/infrastructure/metrics"
	"github.com/chatcart/session-api/internal/infrastructure/observability"
	"github.com/chatcart/session-api/internal/interfaces/httpserver/requests"
	"github.com/chatcart/session-api/internal/interfaces/httpserver/responses"
)

// ThrottleService is the throttle actor facade consumed by the handler.
type ThrottleService interface {
	Consume(ctx context.Context, domain string, n int) (throttle.Decision, error)
	Check(ctx context.Context, domain string) (throttle.Status, error)
	Reset(ctx context.Context, domain string) (int, error)
}

// ThrottleHandler exposes the throttle actor surface.
type ThrottleHandler struct {
	service ThrottleService
	log     zerolog.Logger
}

// NewThrottleHandler constructs the handler.
func NewThrottleHandler(service ThrottleService, log zerolog.Logger) *ThrottleHandler {
	return &ThrottleHandler{
		service: service,
		log:     log.With().Str("handler", "throttle").Logger(),
	}
}

// Consume handles POST /v1/throttle/:domain/consume. A denial is an
// expected outcome, reported as 429 with the retry hint, not an error.
func (h *ThrottleHandler) Consume(c *gin.Context) {
	domain := c.Param("domain")

	var req requests.ConsumeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, responses.ErrorResponse{Error: "invalid request body"})
			return
		}
	}

	ctx, span := observability.StartThrottleSpan(c.Request.Context(), "consume", domain)
	defer span.End()

	decision, err := h.service.Consume(ctx, domain, req.Tokens)
	if err != nil {
		observability.RecordError(span, err)
		responses.HandleError(c, err, "failed to consume tokens")
		return
	}

	metrics.RecordThrottleDecision(domain, decision.Allowed)
	if !decision.Allowed {
		c.JSON(http.StatusTooManyRequests, responses.ThrottledResponse{
			Allowed:    false,
			Tokens:     decision.Tokens,
			MaxTokens:  decision.MaxTokens,
			RetryAfter: decision.RetryAfter.Milliseconds(),
		})
		return
	}

	c.JSON(http.StatusOK, responses.ConsumeResponse{
		Allowed:   true,
		Tokens:    decision.Tokens,
		MaxTokens: decision.MaxTokens,
	})
}

// Check handles GET /v1/throttle/:domain.
func (h *ThrottleHandler) Check(c *gin.Context) {
	domain := c.Param("domain")

	status, err := h.service.Check(c.Request.Context(), domain)
	if err != nil {
		responses.HandleError(c, err, "failed to check bucket")
		return
	}

	c.JSON(http.StatusOK, responses.CheckResponse{
		Tokens:     status.Tokens,
		MaxTokens:  status.MaxTokens,
		LastRefill: status.LastRefill.UnixMilli(),
	})
}

// Reset handles POST /v1/throttle/:domain/reset.
func (h *ThrottleHandler) Reset(c *gin.Context) {
	domain := c.Param("domain")

	tokens, err := h.service.Reset(c.Request.Context(), domain)
	if err != nil {
		responses.HandleError(c, err, "failed to reset bucket")
		return
	}

	c.JSON(http.StatusOK, responses.ResetResponse{Reset: true, Tokens: tokens})
}
