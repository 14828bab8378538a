package notification

import (
	"go-leaveflow/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	notifications := r.Group("/notifications")
	notifications.Use(middleware.AuthMiddleware())
	{
		notifications.GET("", handler.List)
		notifications.POST("/:id/read", handler.MarkRead)
	}
}
