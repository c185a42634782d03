package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/chatcart/session-api/internal/interfaces/httpserver/handlers"
	"github.com/chatcart/session-api/internal/interfaces/httpserver/middleware"
)

// Routes encapsulates versioned route registration.
type Routes struct {
	handlers        *handlers.Provider
	sessionLimiter  *middleware.Limiter
	throttleLimiter *middleware.Limiter
}

// NewRoutes builds the v1 route registrar.
func NewRoutes(handlerProvider *handlers.Provider, sessionLimiter, throttleLimiter *middleware.Limiter) *Routes {
	return &Routes{
		handlers:        handlerProvider,
		sessionLimiter:  sessionLimiter,
		throttleLimiter: throttleLimiter,
	}
}

// Register attaches all v1 routes under the /v1 prefix.
func (r *Routes) Register(engine *gin.Engine) {
	group := engine.Group("/v1")
	registerSessionRoutes(group, r.handlers.Session, r.sessionLimiter)
	registerThrottleRoutes(group, r.handlers.Throttle, r.throttleLimiter)
}
