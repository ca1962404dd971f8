// Package router assembles the gin engine: middleware, services, handlers
// and the /api/v1 route table.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"fundledger/internal/config"
	_ "fundledger/internal/docs" // swagger spec
	"fundledger/internal/filestore"
	"fundledger/internal/handlers"
	"fundledger/internal/middleware"
	"fundledger/internal/services"
)

// Services is every service the routes depend on.
type Services struct {
	Users         services.UserServicer
	Audit         services.AuditServicer
	Notifications services.NotificationServicer
	Projects      services.ProjectServicer
	Balances      services.ProjectBalanceServicer
	Ledger        services.LedgerServicer
	Finances      services.FinanceServicer
	Allocations   services.AllocationServicer
	Expenses      services.ExpenseServicer
	Search        services.SearchServicer
	Reports       services.ReportServicer
}

// NewServices builds the service graph over one database handle.
func NewServices(db *gorm.DB, store filestore.Store, currency string) *Services {
	notifications := services.NewNotificationService(db)
	balances := services.NewProjectBalanceService(db)
	return &Services{
		Users:         services.NewUserService(db),
		Audit:         services.NewAuditService(db),
		Notifications: notifications,
		Projects:      services.NewProjectService(db, notifications),
		Balances:      balances,
		Ledger:        services.NewLedgerService(db),
		Finances:      services.NewFinanceService(db, currency),
		Allocations:   services.NewAllocationService(db, balances, store, notifications, currency),
		Expenses:      services.NewExpenseService(db, balances, store, notifications, currency),
		Search:        services.NewSearchService(db),
		Reports:       services.NewReportService(db),
	}
}

// SetupRouter configures the gin engine. uploadRoot, when set, is served
// read-only at /uploads.
func SetupRouter(cfg *config.Config, svc *Services, uploadRoot string) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestLogging())
	r.Use(middleware.CORS(cfg.CORSOrigin))
	r.Use(middleware.ErrorHandler())

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if uploadRoot != "" {
		r.Static("/uploads", uploadRoot)
	}

	authHandler := handlers.NewAuthHandler(svc.Users, svc.Audit)
	userHandler := handlers.NewUserHandler(svc.Users, svc.Audit)
	projectHandler := handlers.NewProjectHandler(svc.Projects, svc.Audit)
	financeHandler := handlers.NewFinanceHandler(svc.Finances, svc.Audit)
	allocationHandler := handlers.NewAllocationHandler(svc.Allocations, svc.Audit)
	expenseHandler := handlers.NewExpenseHandler(svc.Expenses, svc.Audit)
	balanceHandler := handlers.NewBalanceHandler(svc.Allocations, svc.Ledger, svc.Balances, svc.Projects, svc.Audit)
	notificationHandler := handlers.NewNotificationHandler(svc.Notifications)
	auditHandler := handlers.NewAuditHandler(svc.Audit)
	searchHandler := handlers.NewSearchHandler(svc.Search, svc.Users)
	reportHandler := handlers.NewReportHandler(svc.Reports, svc.Projects, cfg.Currency)

	v1 := r.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware())
	admin := protected.Group("")
	admin.Use(middleware.RequireAdmin())

	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/profile", authHandler.GetProfile)

	// Users
	admin.POST("/users", userHandler.CreateUser)
	admin.GET("/users", userHandler.ListUsers)
	admin.GET("/users/:id", userHandler.GetUser)
	admin.PUT("/users/:id", userHandler.UpdateUser)

	// Projects
	protected.GET("/projects", projectHandler.ListProjects)
	protected.GET("/projects/mine", projectHandler.MyProjects)
	protected.GET("/projects/:id", projectHandler.GetProject)
	protected.GET("/projects/:id/members", projectHandler.ListMembers)
	admin.POST("/projects", projectHandler.CreateProject)
	admin.PUT("/projects/:id", projectHandler.UpdateProject)
	admin.DELETE("/projects/:id", projectHandler.DeleteProject)
	admin.POST("/projects/:id/members", projectHandler.AssignUser)
	admin.DELETE("/projects/:id/members/:userId", projectHandler.UnassignUser)

	// Finances
	admin.POST("/finances", financeHandler.CreateFinance)
	admin.POST("/finances/import", financeHandler.ImportFinances)
	admin.GET("/finances", financeHandler.ListFinances)
	admin.GET("/finances/:id", financeHandler.GetFinance)
	admin.PUT("/finances/:id", financeHandler.UpdateFinance)
	admin.DELETE("/finances/:id", financeHandler.DeleteFinance)
	admin.POST("/finances/:id/approve", financeHandler.ApproveFinance)
	admin.POST("/finances/:id/reject", financeHandler.RejectFinance)

	// Allocations
	admin.POST("/allocations", allocationHandler.CreateAllocation)
	admin.GET("/allocations", allocationHandler.ListAllocations)
	admin.GET("/allocations/:id", allocationHandler.GetAllocation)
	admin.PUT("/allocations/:id", allocationHandler.UpdateAllocation)
	admin.DELETE("/allocations/:id", allocationHandler.DeleteAllocation)
	admin.POST("/allocations/:id/approve", allocationHandler.ApproveAllocation)
	admin.POST("/allocations/:id/reject", allocationHandler.RejectAllocation)

	// Expenses
	protected.POST("/expenses", expenseHandler.CreateExpense)
	protected.GET("/expenses", expenseHandler.ListExpenses)
	protected.GET("/expenses/:id", expenseHandler.GetExpense)
	protected.PUT("/expenses/:id", expenseHandler.UpdateExpense)
	protected.DELETE("/expenses/:id", expenseHandler.DeleteExpense)
	admin.POST("/expenses/:id/approve", expenseHandler.ApproveExpense)
	admin.POST("/expenses/:id/reject", expenseHandler.RejectExpense)

	// Balances
	admin.GET("/balances/system", balanceHandler.GetSystemBalance)
	admin.GET("/balances/projects", balanceHandler.ListProjectBalances)
	protected.GET("/balances/projects/:id", balanceHandler.GetProjectBalance)
	protected.GET("/balances/projects/:id/me", balanceHandler.GetMyAllocationBalance)
	admin.GET("/balances/projects/:id/users/:userId", balanceHandler.GetUserAllocationBalance)
	admin.GET("/balances/projects/:id/cache", balanceHandler.GetCachedBalance)
	admin.POST("/balances/projects/:id/refresh", balanceHandler.RefreshCachedBalance)

	// Notifications
	protected.GET("/notifications", notificationHandler.ListNotifications)
	protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
	protected.PUT("/notifications/read-all", notificationHandler.MarkAllRead)
	protected.PUT("/notifications/:id/read", notificationHandler.MarkRead)

	// Audit, search, reports
	admin.GET("/audit-logs", auditHandler.ListAuditLogs)
	protected.GET("/search", searchHandler.Search)
	admin.GET("/reports/dashboard", reportHandler.Dashboard)
	protected.GET("/reports/expenses/export", reportHandler.ExportExpenses)
	protected.GET("/reports/projects/:id/statement", reportHandler.ProjectStatement)

	return r
}
