package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/chatcart/session-api/internal/interfaces/httpserver/handlers"
	"github.com/chatcart/session-api/internal/interfaces/httpserver/middleware"
)

func registerThrottleRoutes(group *gin.RouterGroup, handler *handlers.ThrottleHandler, limiter *middleware.Limiter) {
	throttle := group.Group("/throttle/:domain")
	if limiter != nil {
		throttle.Use(limiter.Handler())
	}

	throttle.POST("/consume", handler.Consume)
	throttle.GET("", handler.Check)
	throttle.POST("/reset", handler.Reset)
}
