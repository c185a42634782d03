package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/chatcart/session-api/internal/interfaces/httpserver/handlers"
	"github.com/chatcart/session-api/internal/interfaces/httpserver/middleware"
)

func registerSessionRoutes(group *gin.RouterGroup, handler *handlers.SessionHandler, limiter *middleware.Limiter) {
	sessions := group.Group("/sessions/:session_id")
	if limiter != nil {
		sessions.Use(limiter.Handler())
	}

	sessions.POST("/messages", handler.Append)
	sessions.GET("/messages", handler.List)
	sessions.DELETE("/messages", handler.Clear)
	sessions.GET("/messages/count", handler.Count)
	sessions.GET("/metadata", handler.GetMetadata)
	sessions.PATCH("/metadata", handler.UpdateMetadata)
	sessions.POST("/archive", handler.Archive)
}
