package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store kinds accepted by KNOWLEDGE_STORE
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

type Config struct {
	// Environment
	GoEnv string `env:"GO_ENV" default:"development"`

	// Listener
	Host            string        `env:"HOST" default:"0.0.0.0"`
	Port            int           `env:"PORT" default:"5000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"0s"` // 0 closes immediately

	// Logging
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	// Twilio
	TwilioAuthToken string `env:"TWILIO_AUTH_TOKEN"`
	PublicURL       string `env:"PUBLIC_URL"`

	// Knowledge store
	KnowledgeStore string `env:"KNOWLEDGE_STORE" default:"memory"`
	RedisURL       string `env:"REDIS_URL" default:"redis://localhost:6379"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	DatabaseURL    string `env:"DATABASE_URL"`
	SearchLimit    int    `env:"SEARCH_LIMIT" default:"3"`

	// Loader
	FetchTimeout time.Duration `env:"FETCH_TIMEOUT" default:"15s"`
	FetchRate    time.Duration `env:"FETCH_RATE" default:"1s"`

	// Gemini
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL" default:"gemini-1.5-flash"`
}

// LoadConfig loads configuration from the .env file (if any) and environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		// system env vars are enough, a missing .env is not an error
		fmt.Fprintf(os.Stderr, "Warning: .env file not found: %v\n", err)
	}

	config := &Config{}

	if err := loadEnvString(&config.GoEnv, "GO_ENV", "development"); err != nil {
		return nil, err
	}

	// Listener
	if err := loadEnvString(&config.Host, "HOST", "0.0.0.0"); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.Port, "PORT", 5000); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.ShutdownTimeout, "SHUTDOWN_TIMEOUT", 0); err != nil {
		return nil, err
	}

	// Logging
	if err := loadEnvString(&config.LogLevel, "LOG_LEVEL", "info"); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.LogFormat, "LOG_FORMAT", "text"); err != nil {
		return nil, err
	}

	// Twilio
	if err := loadEnvString(&config.TwilioAuthToken, "TWILIO_AUTH_TOKEN", ""); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.PublicURL, "PUBLIC_URL", ""); err != nil {
		return nil, err
	}

	// Knowledge store
	if err := loadEnvString(&config.KnowledgeStore, "KNOWLEDGE_STORE", StoreMemory); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.RedisURL, "REDIS_URL", "redis://localhost:6379"); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.RedisPassword, "REDIS_PASSWORD", ""); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.DatabaseURL, "DATABASE_URL", ""); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.SearchLimit, "SEARCH_LIMIT", 3); err != nil {
		return nil, err
	}

	// Loader
	if err := loadEnvDuration(&config.FetchTimeout, "FETCH_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.FetchRate, "FETCH_RATE", time.Second); err != nil {
		return nil, err
	}

	// Gemini
	if err := loadEnvString(&config.GeminiAPIKey, "GEMINI_API_KEY", ""); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.GeminiModel, "GEMINI_MODEL", "gemini-1.5-flash"); err != nil {
		return nil, err
	}

	config.KnowledgeStore = strings.ToLower(config.KnowledgeStore)
	config.LogLevel = strings.ToLower(config.LogLevel)
	config.LogFormat = strings.ToLower(config.LogFormat)

	return config, nil
}

// Helper functions for type conversion and validation
func loadEnvString(target *string, key, defaultValue string) error {
	if value := os.Getenv(key); value != "" {
		*target = value
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvInt(target *int, key string, defaultValue int) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %w", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvDuration(target *time.Duration, key string, defaultValue time.Duration) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration value for %s: %w", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

// Validate performs validation on the loaded configuration
func (c *Config) Validate() error {
	var errors []string

	if c.Port < 1 || c.Port > 65535 {
		errors = append(errors, "PORT must be between 1 and 65535")
	}
	if c.ShutdownTimeout < 0 {
		errors = append(errors, "SHUTDOWN_TIMEOUT must not be negative")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: %s", strings.Join(validLogLevels, ", ")))
	}

	validLogFormats := []string{"text", "json"}
	if !contains(validLogFormats, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: %s", strings.Join(validLogFormats, ", ")))
	}

	validStores := []string{StoreMemory, StoreRedis, StorePostgres}
	if !contains(validStores, c.KnowledgeStore) {
		errors = append(errors, fmt.Sprintf("KNOWLEDGE_STORE must be one of: %s", strings.Join(validStores, ", ")))
	}
	if c.KnowledgeStore == StorePostgres && c.DatabaseURL == "" {
		errors = append(errors, "DATABASE_URL is required when KNOWLEDGE_STORE is postgres")
	}

	if c.SearchLimit < 1 {
		errors = append(errors, "SEARCH_LIMIT must be at least 1")
	}
	if c.FetchTimeout <= 0 {
		errors = append(errors, "FETCH_TIMEOUT must be positive")
	}
	if c.FetchRate < 0 {
		errors = append(errors, "FETCH_RATE must not be negative")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// Addr returns the listen address built from Host and Port
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper function to check if slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
