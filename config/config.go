package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	API       APIConfig
	Cache     CacheConfig
	Storage   StorageConfig
	RateLimit RateLimitConfig
	Detection DetectionConfig
	Log       LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// APIConfig holds the affiliate API defaults. They seed the persisted
// extension config on first start; later changes go through SET_CONFIG.
type APIConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	AutoInject bool   `mapstructure:"auto_inject"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Session    string        `mapstructure:"session"` // "memory", "disk" or "none"
	SessionDir string        `mapstructure:"session_dir"`
	TTL        time.Duration `mapstructure:"ttl"`
	SearchTTL  time.Duration `mapstructure:"search_ttl"`
	SearchSize int           `mapstructure:"search_size"`
}

// StorageConfig holds the durable store location
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP    int `mapstructure:"per_ip"`   // requests per minute
	Upstream int `mapstructure:"upstream"` // requests per hour
}

// DetectionConfig tunes the content-side runtime
type DetectionConfig struct {
	MutationDebounce   time.Duration `mapstructure:"mutation_debounce"`
	NavigationDebounce time.Duration `mapstructure:"navigation_debounce"`
	SnapshotBudget     int           `mapstructure:"snapshot_budget"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/affilifind/")

	// Environment variable settings
	v.SetEnvPrefix("AFFILIFIND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads ./.env when present. Variables already set win.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return gotenv.Load(".env")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"chrome-extension://*"})

	// API defaults
	v.SetDefault("api.base_url", "http://localhost:8787")
	v.SetDefault("api.api_key", "")
	v.SetDefault("api.auto_inject", true)

	// Cache defaults
	v.SetDefault("cache.session", "memory")
	v.SetDefault("cache.session_dir", "")
	v.SetDefault("cache.ttl", "0s") // lives as long as the session
	v.SetDefault("cache.search_ttl", "10m")
	v.SetDefault("cache.search_size", 256)

	// Storage defaults
	v.SetDefault("storage.path", "affilifind.db")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 120)
	v.SetDefault("ratelimit.upstream", 1000)

	// Detection defaults
	v.SetDefault("detection.mutation_debounce", "500ms")
	v.SetDefault("detection.navigation_debounce", "250ms")
	v.SetDefault("detection.snapshot_budget", 160000)

	// Log defaults
	v.SetDefault("log.level", "info")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server port is required (set AFFILIFIND_SERVER_PORT)")
	}

	switch config.Cache.Session {
	case "memory", "none":
	case "disk":
		if config.Cache.SessionDir == "" {
			return fmt.Errorf("session directory is required when session cache is 'disk'")
		}
	default:
		return fmt.Errorf("session cache must be 'memory', 'disk' or 'none', got: %s", config.Cache.Session)
	}

	if config.Storage.Path == "" {
		return fmt.Errorf("storage path is required (set AFFILIFIND_STORAGE_PATH)")
	}

	switch strings.ToLower(config.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be debug, info, warn or error, got: %s", config.Log.Level)
	}

	return nil
}
