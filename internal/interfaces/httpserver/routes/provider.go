package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/chatcart/session-api/internal/interfaces/httpserver/handlers"
	"github.com/chatcart/session-api/internal/interfaces/httpserver/middleware"
	v1 "github.com/chatcart/session-api/internal/interfaces/httpserver/routes/v1"
)

// Provider registers all API route groups.
type Provider struct {
	v1 *v1.Routes
}

// NewProvider builds the route provider.
func NewProvider(handlerProvider *handlers.Provider, sessionLimiter, throttleLimiter *middleware.Limiter) *Provider {
	return &Provider{
		v1: v1.NewRoutes(handlerProvider, sessionLimiter, throttleLimiter),
	}
}

// Register attaches all routes to the engine.
func (p *Provider) Register(engine *gin.Engine) {
	p.v1.Register(engine)
}
