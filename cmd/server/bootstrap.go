package main

import (
	"context"

	"github.com/taskhub/backend/internal/config"
	"github.com/taskhub/backend/internal/handlers"
	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/internal/services"
	"github.com/taskhub/backend/internal/utils"
	"github.com/taskhub/backend/pkg/logger"
	"gorm.io/gorm"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	cfg         *config.Config
	db          *gorm.DB
	taskQueue   services.TaskQueue
	worker      *services.Worker
	scheduler   *services.Scheduler
	authHandler *handlers.AuthHandler
}

// bootstrap initializes all application dependencies: database, queue, worker, scheduler.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	// Initialize database
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate database
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// Seed default data
	if err := models.SeedDefaultData(); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default data")
	}

	db := models.GetDB()

	// Initialize system logger
	services.InitSystemLogger(db)

	// Initialize task queue (uses Redis if enabled, otherwise sync mode)
	taskQueue := services.InitTaskQueue(cfg)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(services.RecordProjectEvent)
	}

	// Start async worker when the Redis-backed queue is in use
	var worker *services.Worker
	if taskQueue.IsAsync() {
		worker = services.NewWorker(&cfg.Redis)
	}
	if worker != nil {
		worker.SetProcessor(services.RecordProjectEvent)
		if err := worker.Start(); err != nil {
			logger.Error().Err(err).Msg("Failed to start worker")
		}
	}

	// Create default admin user
	authHandler := handlers.NewAuthHandler(db, cfg)
	if err := authHandler.Service().CreateAdminIfNotExists(cfg.Admin); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	// Trash purge and log cleanup
	scheduler := services.NewScheduler(db, services.NewProjectService(db, taskQueue), authHandler.Service(), cfg.Trash)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("Failed to start scheduler")
	}

	return &appServices{
		cfg:         cfg,
		db:          db,
		taskQueue:   taskQueue,
		worker:      worker,
		scheduler:   scheduler,
		authHandler: authHandler,
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown(ctx context.Context) {
	if s.scheduler != nil {
		s.scheduler.Shutdown(ctx)
		logger.Info().Msg("Scheduler stopped")
	}

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		if err := s.taskQueue.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close task queue")
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		sqlDB.Close()
	}
}
