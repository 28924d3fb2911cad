// Command taskhubctl runs maintenance tasks against the TaskHub database.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/taskhub/backend/internal/config"
	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	// configFile is set by the --config flag.
	configFile string

	cfg *config.Config
	db  *gorm.DB
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "taskhubctl",
		Short:         "Maintenance commands for the TaskHub backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return openDatabase()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return closeDatabase()
		},
	}
	root.PersistentFlags().StringVar(&configFile, "config", os.Getenv("CONFIG_PATH"), "config file (default: config.yaml)")

	root.AddCommand(newMigrateCmd(), newSeedCmd(), newPurgeCmd(), newFeatureCmd())
	return root
}

// openDatabase loads config and connects using the configured driver.
func openDatabase() error {
	loaded, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = loaded
	logger.Init(cfg.Log.Level)

	conn, err := models.Open(&cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	db = conn
	return nil
}

func closeDatabase() error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	db = nil
	return sqlDB.Close()
}
