package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	API      APIConfig
	Storage  StorageConfig
	Logger   LoggerConfig
	Carousel CarouselConfig
	Recent   RecentConfig
}

// ServerConfig holds configuration for the local UI server.
type ServerConfig struct {
	Host string
	Port int
}

// APIConfig holds configuration for the remote commerce API.
type APIConfig struct {
	BaseURL        string
	TimeoutSeconds int
}

// StorageConfig holds configuration for durable local storage.
type StorageConfig struct {
	Path string
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// CarouselConfig holds timing configuration for the banner carousel.
type CarouselConfig struct {
	AdvanceSeconds int // auto-advance interval while playing
	ResumeSeconds  int // inactivity delay before autoplay resumes
}

// RecentConfig holds configuration for the recently-viewed list.
type RecentConfig struct {
	MaxEntries int
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "127.0.0.1"),
			Port: getEnvAsInt("SERVER_PORT", 3000),
		},
		API: APIConfig{
			BaseURL:        getEnv("API_BASE_URL", "http://localhost:9000/api"),
			TimeoutSeconds: getEnvAsInt("API_TIMEOUT_SECONDS", 15),
		},
		Storage: StorageConfig{
			Path: getEnv("STORAGE_PATH", "data/storefront.db"),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Carousel: CarouselConfig{
			AdvanceSeconds: getEnvAsInt("CAROUSEL_ADVANCE_SECONDS", 4),
			ResumeSeconds:  getEnvAsInt("CAROUSEL_RESUME_SECONDS", 10),
		},
		Recent: RecentConfig{
			MaxEntries: getEnvAsInt("RECENT_MAX_ENTRIES", 8),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.API.BaseURL == "" {
		return fmt.Errorf("API base URL is required")
	}

	if _, err := url.Parse(c.API.BaseURL); err != nil {
		return fmt.Errorf("invalid API base URL: %w", err)
	}

	if c.API.TimeoutSeconds < 1 {
		return fmt.Errorf("API timeout must be at least 1 second")
	}

	if c.Storage.Path == "" {
		return fmt.Errorf("storage path is required")
	}

	if c.Carousel.AdvanceSeconds < 1 {
		return fmt.Errorf("carousel advance interval must be at least 1 second")
	}

	if c.Carousel.ResumeSeconds < 1 {
		return fmt.Errorf("carousel resume delay must be at least 1 second")
	}

	if c.Recent.MaxEntries < 1 {
		return fmt.Errorf("recently-viewed max entries must be at least 1")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	return nil
}

// Address returns the UI server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
