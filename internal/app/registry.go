package app

import (
	"database/sql"
	"os"
	"path/filepath"

	"go-leaveflow/internal/balance"
	"go-leaveflow/internal/directory"
	"go-leaveflow/internal/holiday"
	"go-leaveflow/internal/leave"
	"go-leaveflow/internal/messaging/kafka"
	"go-leaveflow/internal/middleware"
	"go-leaveflow/internal/notification"
	"go-leaveflow/internal/rbac"
	"go-leaveflow/internal/rbac/infra"
	"go-leaveflow/internal/shared/counter"
	"go-leaveflow/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	logger := zap.L()

	router.Use(middleware.RequestID())
	router.Use(middleware.ContextLogger(logger))
	router.Use(middleware.RateLimitByIP(rate.Limit(50), 100))

	// --- Repositories ---
	rbacRepo := rbac.NewRepository(gormDB)
	directoryRepo := directory.NewRepository(gormDB)
	holidayRepo := holiday.NewRepository(gormDB)
	workflowRepo := workflow.NewRepository(gormDB)
	balanceRepo := balance.NewRepository(gormDB)
	leaveRepo := leave.NewRepository(gormDB)
	notificationRepo := notification.NewRepository(gormDB)
	counterRepo := counter.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer(filepath.Join("internal", "rbac", "infra", "model.conf"))
	if err != nil {
		return err
	}
	rbacService := rbac.NewService(rbacRepo, enforcer)

	// --- Workflow resolution ---
	resolver, err := workflow.NewResolver(os.Getenv("WORKFLOW_SOURCE"), workflowRepo)
	if err != nil {
		return err
	}

	// --- Services ---
	directoryService := directory.NewService(directoryRepo, rdb)
	calendar := holiday.NewCalendar(holidayRepo)
	workflowService := workflow.NewService(workflowRepo)
	balanceService := balance.NewService(balanceRepo)
	notificationService := notification.NewService(notificationRepo)
	leaveService := leave.NewService(
		db,
		leaveRepo,
		balanceRepo,
		outboxRepo,
		counterRepo,
		resolver,
		directoryService,
		calendar,
	)

	// --- Handlers ---
	leaveHandler := leave.NewHandler(leaveService)
	workflowHandler := workflow.NewHandler(workflowService)
	balanceHandler := balance.NewHandler(balanceService)
	notificationHandler := notification.NewHandler(notificationService)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		leave.RegisterRoutes(api, leaveHandler, rbacService, rdb)
		workflow.RegisterRoutes(api, workflowHandler, rbacService)
		balance.RegisterRoutes(api, balanceHandler)
		notification.RegisterRoutes(api, notificationHandler)
	}

	return nil
}
