package leave

import (
	"go-leaveflow/internal/middleware"
	"go-leaveflow/internal/rbac"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
	rdb *redis.Client,
) {
	leaves := r.Group("/leaves")
	leaves.Use(middleware.AuthMiddleware())
	{
		leaves.GET("", middleware.RBACAuthorize(rbacService, "leave", "read"), handler.GetAll)
		leaves.GET("/mine", middleware.RBACAuthorize(rbacService, "leave", "read"), handler.GetMine)
		leaves.GET("/:id", middleware.RBACAuthorize(rbacService, "leave", "read"), handler.GetByID)
		leaves.POST("", middleware.RBACAuthorize(rbacService, "leave", "create"), middleware.Idempotency(rdb), handler.Create)
		leaves.POST("/:id/decision", middleware.RBACAuthorize(rbacService, "leave", "approve"), middleware.Idempotency(rdb), handler.Decide)
		leaves.POST("/:id/cancel", middleware.RBACAuthorize(rbacService, "leave", "create"), handler.Cancel)
		leaves.POST("/:id/deletion-request", middleware.RBACAuthorize(rbacService, "leave", "create"), handler.RequestDeletion)
		leaves.POST("/:id/deletion-decision", middleware.RBACAuthorize(rbacService, "leave", "approve"), middleware.Idempotency(rdb), handler.DecideDeletion)
	}
}
