package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/cuongbtq/marketplace-ledger/internal/api/handler"
	"github.com/gin-gonic/gin"
)

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Dependencies holds everything the router needs beyond the handlers.
type Dependencies struct {
	Logger         *slog.Logger
	Handlers       *handler.Dependencies
	Profiles       ProfileLoader
	Health         HealthChecker
	RequestTimeout time.Duration
}

// SetupRouter configures and returns the Gin router with all routes.
func SetupRouter(deps *Dependencies) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())
	if deps.RequestTimeout > 0 {
		r.Use(TimeoutMiddleware(deps.RequestTimeout))
	}

	r.GET("/health", func(c *gin.Context) {
		if deps.Health != nil {
			if err := deps.Health.HealthCheck(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "unhealthy",
					"error":  err.Error(),
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "marketplace-ledger-api",
		})
	})

	contractHandler := handler.NewContractHandler(deps.Handlers)
	jobHandler := handler.NewJobHandler(deps.Handlers)
	balanceHandler := handler.NewBalanceHandler(deps.Handlers)
	adminHandler := handler.NewAdminHandler(deps.Handlers)

	auth := ProfileAuth(deps.Profiles, deps.Logger)

	contracts := r.Group("/contracts", auth)
	{
		// GET /contracts - the caller's non-terminated contracts
		contracts.GET("", contractHandler.ListContracts)

		// GET /contracts/:id - caller-scoped contract lookup
		contracts.GET("/:id", contractHandler.GetContract)
	}

	jobs := r.Group("/jobs", auth)
	{
		// GET /jobs/unpaid - caller's unpaid jobs on in-progress contracts
		jobs.GET("/unpaid", jobHandler.ListUnpaidJobs)

		// POST /jobs/:job_id/pay - pay a job
		jobs.POST("/:job_id/pay", jobHandler.PayJob)
	}

	balances := r.Group("/balances", auth)
	{
		// POST /balances/deposit/:userId - self-deposit
		balances.POST("/deposit/:userId", balanceHandler.Deposit)
	}

	admin := r.Group("/admin")
	{
		// GET /admin/best-profession - top-earning profession in a window
		admin.GET("/best-profession", adminHandler.BestProfession)

		// GET /admin/best-clients - top-paying clients in a window
		admin.GET("/best-clients", adminHandler.BestClients)
	}

	return r
}
