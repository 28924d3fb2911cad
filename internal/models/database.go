package models

import (
	"fmt"
	"time"

	"github.com/taskhub/backend/internal/config"
	applog "github.com/taskhub/backend/pkg/logger"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// gormWriter routes gorm's SQL log through zerolog.
type gormWriter struct{}

func (gormWriter) Printf(format string, v ...interface{}) {
	applog.Debug().Str("component", "gorm").Msgf(format, v...)
}

// Open connects to the configured database without touching the global handle.
func Open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	level := logger.Warn
	if cfg.Debug {
		level = logger.Info
	}

	gormConfig := &gorm.Config{
		Logger: logger.New(gormWriter{}, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// Enforce ON DELETE CASCADE between projects and tasks.
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("failed to enable sqlite foreign keys: %w", err)
		}
	}

	return db, nil
}

func InitDB(cfg *config.DatabaseConfig) error {
	db, err := Open(cfg)
	if err != nil {
		return err
	}
	DB = db
	return nil
}

// Migrate creates or updates all tables on db.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Project{},
		&Task{},
		&SystemConfig{},
		&SystemLog{},
		&SchedulerLock{},
		&AccessToken{},
	)
}

func AutoMigrate() error {
	return Migrate(DB)
}

func GetDB() *gorm.DB {
	return DB
}

// Feature flag keys stored in system_configs.
const (
	FeatureTaskCreation = "feature.task_creation_enabled"
	FeatureTaskEditing  = "feature.task_editing_enabled"
	FeatureTaskDeletion = "feature.task_deletion_enabled"
)

// Seed creates default data on db if not exists.
func Seed(db *gorm.DB) error {
	defaultConfigs := []SystemConfig{
		{Key: FeatureTaskCreation, Value: "true", Type: "bool", Group: "feature", Label: "Allow task creation"},
		{Key: FeatureTaskEditing, Value: "true", Type: "bool", Group: "feature", Label: "Allow task editing"},
		{Key: FeatureTaskDeletion, Value: "true", Type: "bool", Group: "feature", Label: "Allow task deletion"},
		{Key: "log_retention_days", Value: "30", Type: "int", Group: "system", Label: "System Log Retention Days"},
	}

	for _, cfg := range defaultConfigs {
		var count int64
		if err := db.Model(&SystemConfig{}).Where(&SystemConfig{Key: cfg.Key}).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := db.Create(&cfg).Error; err != nil {
				return err
			}
		}
	}

	return nil
}

// SeedDefaultData seeds the global database.
func SeedDefaultData() error {
	return Seed(DB)
}
