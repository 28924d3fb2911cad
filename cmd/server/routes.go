package main

import (
	"github.com/gin-gonic/gin"
	"github.com/taskhub/backend/internal/handlers"
	"github.com/taskhub/backend/internal/middleware"
	"github.com/taskhub/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.RequestID(), logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for the public auth routes
	authLimiter := middleware.NewRateLimiter(svc.cfg.RateLimit.RPS, svc.cfg.RateLimit.Burst)

	api := r.Group("/api")
	{
		// Health check
		healthHandler := handlers.NewHealthHandler(svc.db, svc.taskQueue)
		api.GET("/health", healthHandler.CheckHealth)

		// Auth routes (public, rate limited)
		public := api.Group("", authLimiter.Middleware())
		{
			public.POST("/register", svc.authHandler.Register)
			public.POST("/login", svc.authHandler.Login)
			public.GET("/auth/config", svc.authHandler.GetAuthConfig)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired(svc.authHandler.Service()), middleware.AuditLog())
		{
			// Auth
			protected.POST("/logout", svc.authHandler.Logout)
			protected.GET("/user", svc.authHandler.GetCurrentUser)

			// Projects
			projectHandler := handlers.NewProjectHandler(svc.db, svc.taskQueue)
			protected.GET("/projects", projectHandler.List)
			protected.POST("/projects", projectHandler.Create)
			protected.GET("/projects/:id", projectHandler.Get)
			protected.PUT("/projects/:id", projectHandler.Update)
			protected.PATCH("/projects/:id", projectHandler.Update)
			protected.DELETE("/projects/:id", projectHandler.Delete)
			protected.PATCH("/projects/:id/restore", projectHandler.Restore)

			// Tasks
			taskHandler := handlers.NewTaskHandler(svc.db)
			protected.GET("/projects/:id/tasks", taskHandler.List)
			protected.POST("/projects/:id/tasks", taskHandler.Create)
			protected.GET("/projects/:id/tasks/:task_id", taskHandler.Get)
			protected.PUT("/projects/:id/tasks/:task_id", taskHandler.Update)
			protected.PATCH("/projects/:id/tasks/:task_id", taskHandler.Update)
			protected.DELETE("/projects/:id/tasks/:task_id", taskHandler.Delete)
		}

		// Admin routes
		admin := api.Group("/admin")
		admin.Use(middleware.AuthRequired(svc.authHandler.Service()), middleware.AdminRequired(), middleware.AuditLog())
		{
			// System Logs
			systemLogHandler := handlers.NewSystemLogHandler(svc.db)
			admin.GET("/system-logs", systemLogHandler.List)
			admin.GET("/system-logs/modules", systemLogHandler.GetModules)

			// Feature flags
			systemConfigHandler := handlers.NewSystemConfigHandler(svc.db)
			admin.GET("/features", systemConfigHandler.GetFeatures)
			admin.PUT("/features", systemConfigHandler.UpdateFeatures)

			// Metrics
			metricsHandler := handlers.NewMetricsHandler(svc.db, svc.taskQueue)
			admin.GET("/metrics", metricsHandler.Metrics)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"code": 404, "message": "Not Found"})
	})
}
