package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/fluxio-platform/fluxio/internal/db"
	"github.com/fluxio-platform/fluxio/internal/db/models"
	"github.com/fluxio-platform/fluxio/internal/server/config"
	"github.com/fluxio-platform/fluxio/internal/server/web/api"
	"github.com/fluxio-platform/fluxio/internal/server/web/middleware"
	"github.com/fluxio-platform/fluxio/internal/tenant"
	"github.com/fluxio-platform/fluxio/pkg/logger"
	"github.com/fluxio-platform/fluxio/pkg/utils"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Fluxio server",
	Long:  `Start the Fluxio API server with tenant resolution, reservations and notification streaming.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runServer()
	},
}

// initSuperuser creates or updates the platform superuser from config.
func initSuperuser(database *gorm.DB, cfg *config.Config) error {
	var admin models.User

	err := database.Where("email = ?", cfg.Auth.AdminEmail).First(&admin).Error
	if err == gorm.ErrRecordNotFound {
		hashedPassword, err := utils.HashPassword(cfg.Auth.AdminPassword)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		admin = models.User{
			Email:     cfg.Auth.AdminEmail,
			Password:  hashedPassword,
			FirstName: "Platform",
			LastName:  "Administrator",
			IsActive:  true,
			Role:      models.RoleSuperuser,
			TenantID:  nil, // the superuser belongs to no tenant
		}

		if err := database.Create(&admin).Error; err != nil {
			return fmt.Errorf("failed to create superuser: %w", err)
		}

		logger.InfoEvent().
			Str("email", admin.Email).
			Msg("Created superuser from config")
	} else if err != nil {
		return fmt.Errorf("failed to check superuser: %w", err)
	} else {
		// Superuser exists, update password if changed
		if !utils.ComparePassword(admin.Password, cfg.Auth.AdminPassword) {
			hashedPassword, err := utils.HashPassword(cfg.Auth.AdminPassword)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}

			admin.Password = hashedPassword
			if err := database.Save(&admin).Error; err != nil {
				return fmt.Errorf("failed to update superuser password: %w", err)
			}
			logger.InfoEvent().
				Str("email", admin.Email).
				Msg("Updated superuser password from config")
		}
	}

	return nil
}

func runServer() error {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	if err := logger.Setup(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
		File:   cfg.Logging.File,
	}); err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}

	logger.InfoEvent().
		Str("version", version).
		Str("build_time", buildTime).
		Str("git_commit", gitCommit).
		Msg("Starting Fluxio server")

	// Connect to database
	logger.InfoEvent().
		Str("driver", cfg.Database.Driver).
		Str("database", cfg.Database.Database).
		Msg("Connecting to database")

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
		logger.Fatal(fmt.Sprintf("Failed to connect to database: %v", err))
	}

	logger.InfoEvent().Msg("Connected to database")

	// Run auto migrations
	if err := db.AutoMigrate(database); err != nil {
		logger.Fatal(fmt.Sprintf("Failed to run migrations: %v", err))
	}

	logger.InfoEvent().Msg("Database migrations completed")

	// Initialize superuser from config
	if err := initSuperuser(database, cfg); err != nil {
		logger.Fatal(fmt.Sprintf("Failed to initialize superuser: %v", err))
	}

	// Tenant resolution: shared domain cache, resolver bound to the
	// platform base domain
	cache := tenant.NewDomainCache(cfg.Tenancy.DomainCacheTTL)
	resolver := tenant.NewResolver(database, cache, cfg.Server.BaseDomain)

	logger.InfoEvent().
		Str("base_domain", cfg.Server.BaseDomain).
		Dur("domain_cache_ttl", cfg.Tenancy.DomainCacheTTL).
		Msg("Tenant resolver initialized")

	// API surface
	mux := http.NewServeMux()
	apiHandler := api.NewHandler(database, cfg, cache, resolver)
	apiHandler.RegisterRoutes(mux)

	var handler http.Handler = mux
	handler = api.CORSMiddleware(handler)
	handler = middleware.HTTPLoggerWithLevel(handler, cfg.Logging.Level)
	handler = middleware.SecurityHeaders(handler)

	httpServer := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:     handler,
		ReadTimeout: 30 * time.Second,
		// No WriteTimeout: the notification stream holds its connection
		// open indefinitely
	}

	// Start HTTP server
	errCh := make(chan error, 1)
	go func() {
		logger.InfoEvent().
			Str("addr", httpServer.Addr).
			Msg("HTTP server listening")

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case sig := <-sigCh:
		logger.InfoEvent().Str("signal", sig.String()).Msg("Shutting down server...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.ErrorEvent().Err(err).Msg("HTTP server shutdown error")
		return err
	}

	logger.InfoEvent().Msg("Server stopped")
	return nil
}
