package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the server configuration
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Tenancy       TenancyConfig       `mapstructure:"tenancy"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

// ServerConfig holds server settings
type ServerConfig struct {
	HTTPPort   int    `mapstructure:"http_port"`
	BaseDomain string `mapstructure:"base_domain"` // platform domain, e.g. "fluxio.mx"
	// TrustProxyHeaders honors X-Forwarded-Host for tenant resolution.
	// Enable only behind a proxy that strips client-supplied forwarding
	// headers.
	TrustProxyHeaders bool `mapstructure:"trust_proxy_headers"`
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Driver      string `mapstructure:"driver"`
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	Database    string `mapstructure:"database"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	SSLMode     string `mapstructure:"ssl_mode"`
	SQLLogLevel string `mapstructure:"sql_log_level"`
}

// AuthConfig holds authentication settings
type AuthConfig struct {
	JWTSecret     string `mapstructure:"jwt_secret"`
	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`
}

// TenancyConfig holds tenant resolution settings
type TenancyConfig struct {
	DomainCacheTTL time.Duration `mapstructure:"domain_cache_ttl"`
}

// NotificationsConfig holds notification feed settings
type NotificationsConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
	File   string `mapstructure:"file"`
}

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.http_port", 8080)
	viper.SetDefault("server.base_domain", "fluxio.mx")
	viper.SetDefault("server.trust_proxy_headers", false)

	// Database defaults (SQLite for easier local development)
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.database", "fluxio.db")
	// PostgreSQL defaults (if driver is set to postgres)
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.username", "fluxio")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.sql_log_level", "silent")

	// Auth defaults
	viper.SetDefault("auth.admin_email", "admin@fluxio.mx")
	viper.SetDefault("auth.admin_password", "admin123") // Change in production!

	// Tenancy defaults
	viper.SetDefault("tenancy.domain_cache_ttl", "5m")

	// Notifications defaults
	viper.SetDefault("notifications.poll_interval", "5s")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
}
