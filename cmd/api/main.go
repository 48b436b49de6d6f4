package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"

	"github.com/dfsouza/patrimonio-api/internal/config"
	"github.com/dfsouza/patrimonio-api/internal/database"
	"github.com/dfsouza/patrimonio-api/internal/handlers"
	"github.com/dfsouza/patrimonio-api/internal/jobs"
	"github.com/dfsouza/patrimonio-api/internal/middleware"
	"github.com/dfsouza/patrimonio-api/internal/repository"
	"github.com/dfsouza/patrimonio-api/internal/services"
	"github.com/dfsouza/patrimonio-api/internal/session"
	"github.com/dfsouza/patrimonio-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Setup(cfg.Environment)

	// Initialize Sentry when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	repos := repository.NewRepositories(db)

	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	svcs := services.NewServices(repos, worker, cfg)
	sessions := session.NewManager(svcs)

	scheduleJobs(worker, svcs)

	h := handlers.NewHandlers(svcs, sessions, worker)

	router := setupRouter(h, repos, cfg)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	worker.Shutdown()
	logger.Info("Background worker stopped")

	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func setupRouter(h *handlers.Handlers, repos *repository.Repositories, cfg *config.Config) *gin.Engine {
	router := gin.New()

	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	v1 := router.Group("/api/v1")
	{
		// Health check (public)
		v1.GET("/health", h.Health.Check)

		// Authentication (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
		}

		// Protected routes (requires authentication)
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret, repos.User))
		{
			protected.GET("/auth/me", h.Auth.Me)

			// Inventory
			items := protected.Group("/items")
			{
				items.GET("", h.Inventory.Index)
				items.GET("/export", h.Inventory.Export)
				items.GET("/:id", h.Inventory.Show)
				items.POST("", h.Inventory.Create)
				items.PUT("/:id", h.Inventory.Update)
				items.PATCH("/:id/status", h.Inventory.ChangeStatus)
				items.POST("/:id/use", h.Inventory.RegisterUse)
				items.POST("/:id/use/return", h.Inventory.ReturnFromUse)
				items.DELETE("/:id", h.Inventory.Delete)
				items.GET("/:id/audits", h.Audit.ForItem)
			}

			// Loans
			loans := protected.Group("/loans")
			{
				loans.GET("", h.Loan.Index)
				loans.GET("/overdue", h.Loan.Overdue)
				loans.POST("", h.Loan.Create)
				loans.POST("/:id/return", h.Loan.Return)
			}

			// Taxonomy
			protected.GET("/categories", h.Taxonomy.Categories)
			protected.POST("/categories", h.Taxonomy.CreateCategory)
			protected.DELETE("/categories/:id", h.Taxonomy.DeleteCategory)
			protected.GET("/sectors", h.Taxonomy.Sectors)
			protected.POST("/sectors", h.Taxonomy.CreateSector)
			protected.DELETE("/sectors/:id", h.Taxonomy.DeleteSector)

			// Audit trail
			protected.GET("/audits", h.Audit.Index)

			// Campuses (list is open to every authenticated user)
			protected.GET("/campuses", h.Campus.Index)

			// Profile update: admin or the profile owner
			protected.PUT("/users/:id", middleware.RequireAdminOrOwner(), h.User.Update)
			protected.PUT("/users/:id/password", middleware.RequireAdminOrOwner(), h.User.ChangePassword)

			// Admin-only routes
			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				admin.GET("/users", h.User.Index)
				admin.GET("/users/:id", h.User.Show)
				admin.POST("/users", h.User.Create)
				admin.DELETE("/users/:id", h.User.Delete)

				admin.POST("/campuses", h.Campus.Create)
				admin.DELETE("/campuses/:id", h.Campus.Delete)

				admin.GET("/jobs/stats", h.Job.Stats)
			}
		}
	}

	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services) {
	// Flag overdue loans every hour so the morning shift sees them
	worker.ScheduleEvery(1*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Checking overdue loans...")
		overdue, err := svcs.Loan.OverdueAll(ctx)
		if err != nil {
			return err
		}
		if len(overdue) > 0 {
			logger.Warn("Overdue loans found", "count", len(overdue))
		}
		return nil
	})

	logger.Info("Scheduled recurring jobs")
}
