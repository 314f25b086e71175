package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fluxio-platform/fluxio/internal/db"
	"github.com/fluxio-platform/fluxio/internal/server/config"
	"github.com/fluxio-platform/fluxio/pkg/logger"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations and exit",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if err := logger.Setup(logger.Config{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Output: cfg.Logging.Output,
			File:   cfg.Logging.File,
		}); err != nil {
			return fmt.Errorf("failed to setup logger: %w", err)
		}

		database, err := db.Connect(db.Config{
			Driver:      cfg.Database.Driver,
			Host:        cfg.Database.Host,
			Port:        cfg.Database.Port,
			Database:    cfg.Database.Database,
			Username:    cfg.Database.Username,
			Password:    cfg.Database.Password,
			SSLMode:     cfg.Database.SSLMode,
			SQLLogLevel: cfg.Database.SQLLogLevel,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}

		if err := db.AutoMigrate(database); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		logger.InfoEvent().Msg("Database migrations completed")
		return nil
	},
}
