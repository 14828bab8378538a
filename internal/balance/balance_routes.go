package balance

import (
	"go-leaveflow/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	balances := r.Group("/balances")
	balances.Use(middleware.AuthMiddleware())
	{
		balances.GET("/mine", handler.GetMine)
	}
}
