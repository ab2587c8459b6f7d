package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Database configuration
	Database DatabaseConfig `mapstructure:"database"`

	// Publishing scheduler configuration
	Scheduler SchedulerConfig `mapstructure:"scheduler"`

	// Asset storage configuration
	Assets AssetsConfig `mapstructure:"assets"`

	// Search configuration
	Search SearchConfig `mapstructure:"search"`

	// Logging configuration
	Log LogConfig `mapstructure:"log"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	Name           string        `mapstructure:"name"`
	SSLMode        string        `mapstructure:"sslmode"`
	MaxOpenConns   int           `mapstructure:"max_open_conns"`
	MaxIdleConns   int           `mapstructure:"max_idle_conns"`
	MaxLifetime    time.Duration `mapstructure:"max_lifetime"`
	MigrationsPath string        `mapstructure:"migrations_path"`
}

// SchedulerConfig holds publishing scheduler settings
type SchedulerConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

// AssetsConfig holds the root under which media files live
type AssetsConfig struct {
	Root string `mapstructure:"root"`
}

// SearchConfig holds search pagination limits
type SearchConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
	MaxLimit     int `mapstructure:"max_limit"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "pretty"
}

// envBindings maps config keys to the environment variables that override them
var envBindings = map[string]string{
	"server.port":              "PORT",
	"server.read_timeout":      "SERVER_READ_TIMEOUT",
	"server.write_timeout":     "SERVER_WRITE_TIMEOUT",
	"server.shutdown_timeout":  "SERVER_SHUTDOWN_TIMEOUT",
	"server.request_timeout":   "SERVER_REQUEST_TIMEOUT",
	"database.host":            "DB_HOST",
	"database.port":            "DB_PORT",
	"database.user":            "DB_USER",
	"database.password":        "DB_PASSWORD",
	"database.name":            "DB_NAME",
	"database.sslmode":         "DB_SSLMODE",
	"database.max_open_conns":  "DB_MAX_OPEN_CONNS",
	"database.max_idle_conns":  "DB_MAX_IDLE_CONNS",
	"database.max_lifetime":    "DB_MAX_LIFETIME",
	"database.migrations_path": "MIGRATIONS_PATH",
	"scheduler.enabled":        "SCHEDULER_ENABLED",
	"scheduler.interval":       "SCHEDULER_INTERVAL",
	"assets.root":              "ASSETS_ROOT",
	"search.default_limit":     "SEARCH_DEFAULT_LIMIT",
	"search.max_limit":         "SEARCH_MAX_LIMIT",
	"log.level":                "LOG_LEVEL",
	"log.format":               "LOG_FORMAT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.request_timeout", 15*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "content_lifecycle")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_lifetime", 5*time.Minute)
	v.SetDefault("database.migrations_path", "./migrations")

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.interval", 30*time.Second)

	v.SetDefault("assets.root", "./data/assets")

	v.SetDefault("search.default_limit", 10)
	v.SetDefault("search.max_limit", 50)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load reads configuration from defaults, an optional config file named by
// CONFIG_FILE, and environment variables, in increasing precedence.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if err := v.BindEnv("config_file", "CONFIG_FILE"); err != nil {
		return nil, err
	}
	if file := v.GetString("config_file"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("SCHEDULER_INTERVAL must be positive")
	}
	if c.Search.DefaultLimit <= 0 || c.Search.MaxLimit < c.Search.DefaultLimit {
		return fmt.Errorf("search limits must satisfy 0 < SEARCH_DEFAULT_LIMIT <= SEARCH_MAX_LIMIT")
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}
