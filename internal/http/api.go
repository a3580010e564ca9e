package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"finance-tracker/internal/auth"
	"finance-tracker/internal/domain"
	"finance-tracker/internal/service"
)

func init() {
	// Amounts are rendered as JSON numbers rather than strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Dependencies groups the services the HTTP layer needs.
type Dependencies struct {
	Users        service.UserService
	Transactions service.TransactionService
	Analytics    service.AnalyticsService
	Exports      service.ExportService
	Tokens       *auth.TokenManager
	Logger       *logrus.Logger

	// AuthRate and AuthBurst limit login/register attempts per client IP.
	// A zero AuthRate disables limiting.
	AuthRate  rate.Limit
	AuthBurst int
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users        service.UserService
	transactions service.TransactionService
	analytics    service.AnalyticsService
	exports      service.ExportService
	tokens       *auth.TokenManager
	logger       *logrus.Logger
	authLimiter  *ipLimiter
	now          func() time.Time
}

func NewHandler(deps Dependencies) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = logrus.New()
	}
	h := &Handler{
		users:        deps.Users,
		transactions: deps.Transactions,
		analytics:    deps.Analytics,
		exports:      deps.Exports,
		tokens:       deps.Tokens,
		logger:       logger,
		now:          time.Now,
	}
	if deps.AuthRate > 0 {
		h.authLimiter = newIPLimiter(deps.AuthRate, deps.AuthBurst, 10*time.Minute)
	}
	return h
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestIDMiddleware(), accessLogMiddleware(h.logger), corsMiddleware())

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})

		authGroup := api.Group("/auth")
		authGroup.POST("/register", h.rateLimit(), h.register)
		authGroup.POST("/login", h.rateLimit(), h.login)
		authGroup.GET("/me", h.authenticate(), h.me)
		authGroup.GET("/admin-only", h.authenticate(), requireRole(domain.RoleAdmin), h.adminOnly)

		protected := api.Group("")
		protected.Use(h.authenticate())

		protected.GET("/transactions", h.listTransactions)
		protected.GET("/transactions/export", h.exportTransactions)
		protected.POST("/transactions", requireRole(domain.RoleAdmin, domain.RoleUser), h.createTransaction)
		protected.PUT("/transactions/:id", requireRole(domain.RoleAdmin, domain.RoleUser), h.updateTransaction)
		protected.DELETE("/transactions/:id", requireRole(domain.RoleAdmin, domain.RoleUser), h.deleteTransaction)

		protected.GET("/analytics/dashboard", h.dashboard)
		protected.GET("/analytics/monthly-trends", h.monthlyTrends)
		protected.GET("/analytics/category-breakdown", h.categoryBreakdown)
		protected.GET("/analytics/income-vs-expense", h.incomeVsExpense)

		protected.POST("/exports", h.createExport)
		protected.GET("/exports", h.listExports)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
