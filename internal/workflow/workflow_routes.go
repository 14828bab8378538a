package workflow

import (
	"go-leaveflow/internal/middleware"
	"go-leaveflow/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
) {
	workflows := r.Group("/workflows")
	workflows.Use(middleware.AuthMiddleware())
	{
		workflows.GET("", middleware.RBACAuthorize(rbacService, "workflow", "read"), handler.GetAll)
		workflows.POST("", middleware.RBACAuthorize(rbacService, "workflow", "manage"), handler.Create)
	}
}
