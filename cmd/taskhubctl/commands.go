package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/internal/services"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := models.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	var withAdmin bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert default settings and, optionally, the admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := models.Seed(db); err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			if withAdmin {
				auth := services.NewAuthService(db, &cfg.JWT, &cfg.LDAP)
				if err := auth.CreateAdminIfNotExists(cfg.Admin); err != nil {
					return fmt.Errorf("seed admin: %w", err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Default data seeded")
			return nil
		},
	}
	cmd.Flags().BoolVar(&withAdmin, "admin", true, "create the configured admin account if missing")
	return cmd
}

func newPurgeCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Permanently delete projects trashed more than --days ago",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 0 {
				return fmt.Errorf("--days must not be negative")
			}
			projects := services.NewProjectService(db, nil)
			purged, err := projects.Purge(time.Now().AddDate(0, 0, -days))
			if err != nil {
				return fmt.Errorf("purge: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %d trashed projects\n", purged)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "minimum days in the trash")
	return cmd
}

var features = map[string]services.Feature{
	"task-creation": services.FeatureTaskCreation,
	"task-editing":  services.FeatureTaskEditing,
	"task-deletion": services.FeatureTaskDeletion,
}

func newFeatureCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "feature <task-creation|task-editing|task-deletion> <on|off>",
		Short:     "Switch a task feature flag",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"task-creation", "task-editing", "task-deletion"},
		RunE: func(cmd *cobra.Command, args []string) error {
			feature, ok := features[args[0]]
			if !ok {
				return fmt.Errorf("unknown feature %q", args[0])
			}
			var enabled bool
			switch strings.ToLower(args[1]) {
			case "on", "true", "1", "yes":
				enabled = true
			case "off", "false", "0", "no":
				enabled = false
			default:
				return fmt.Errorf("invalid state %q (expected on or off)", args[1])
			}
			if err := services.NewSystemConfigService(db).SetFeature(feature, enabled); err != nil {
				return fmt.Errorf("set feature: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s enabled=%t\n", args[0], enabled)
			return nil
		},
	}
}
