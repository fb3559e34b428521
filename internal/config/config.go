// Package config loads service settings from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rezonia/invoice-validator/internal/llm"
	"github.com/rezonia/invoice-validator/internal/model"
	"github.com/rezonia/invoice-validator/internal/validation"
)

// Config holds all application configuration
type Config struct {
	Validation ValidationConfig
	Server     ServerConfig
	LLM        LLMConfig
	Batch      BatchConfig
}

// ValidationConfig holds validation engine settings
type ValidationConfig struct {
	ToleranceCents int
	RequiredFields []string
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host         string
	Port         int
	MaxBodyBytes int64
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// LLMConfig holds text extraction settings
type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// BatchConfig holds batch validation settings
type BatchConfig struct {
	Concurrency int
}

const (
	DefaultHost         = "0.0.0.0"
	DefaultPort         = 8080
	DefaultMaxBodyBytes = 10 << 20
	DefaultConcurrency  = 8
)

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Validation: ValidationConfig{
			ToleranceCents: getEnvAsInt("VALIDATOR_TOLERANCE_CENTS", validation.DefaultToleranceCents),
			RequiredFields: getEnvAsList("VALIDATOR_REQUIRED_FIELDS", validation.DefaultRequiredFields()),
		},
		Server: ServerConfig{
			Host:         getEnv("VALIDATOR_HOST", DefaultHost),
			Port:         getEnvAsInt("VALIDATOR_PORT", DefaultPort),
			MaxBodyBytes: int64(getEnvAsInt("VALIDATOR_MAX_BODY_BYTES", DefaultMaxBodyBytes)),
			ReadTimeout:  getEnvAsDuration("VALIDATOR_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvAsDuration("VALIDATOR_WRITE_TIMEOUT", 180*time.Second),
		},
		LLM: LLMConfig{
			APIKey:  getEnv("LLM_API_KEY", ""),
			BaseURL: getEnv("LLM_BASE_URL", llm.DefaultBaseURL),
			Model:   getEnv("LLM_MODEL", llm.ModelClaude35Sonnet),
			Timeout: getEnvAsDuration("LLM_TIMEOUT", llm.DefaultTimeout),
		},
		Batch: BatchConfig{
			Concurrency: getEnvAsInt("VALIDATOR_CONCURRENCY", DefaultConcurrency),
		},
	}
}

// LLMEnabled reports whether text extraction can be offered
func (c *Config) LLMEnabled() bool {
	return c.LLM.APIKey != ""
}

// EngineOptions converts the validation settings into engine options
func (c *Config) EngineOptions() []validation.Option {
	return []validation.Option{
		validation.WithToleranceCents(c.Validation.ToleranceCents),
		validation.WithRequiredFields(c.Validation.RequiredFields...),
	}
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Validation.ToleranceCents < 0 {
		return model.NewConfigError("VALIDATOR_TOLERANCE_CENTS", c.Validation.ToleranceCents, "must not be negative")
	}
	for _, f := range c.Validation.RequiredFields {
		if strings.TrimSpace(f) == "" {
			return model.NewConfigError("VALIDATOR_REQUIRED_FIELDS", c.Validation.RequiredFields, "field names must not be blank")
		}
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return model.NewConfigError("VALIDATOR_PORT", c.Server.Port, "must be between 1 and 65535")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return model.NewConfigError("VALIDATOR_MAX_BODY_BYTES", c.Server.MaxBodyBytes, "must be positive")
	}
	if c.Batch.Concurrency <= 0 {
		return model.NewConfigError("VALIDATOR_CONCURRENCY", c.Batch.Concurrency, "must be positive")
	}
	if c.LLMEnabled() && c.LLM.BaseURL == "" {
		return model.NewConfigError("LLM_BASE_URL", nil, "is required when LLM_API_KEY is set")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated value, dropping empty entries
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return SplitList(value)
}

// SplitList splits a comma separated list, trimming spaces and dropping
// empty entries
func SplitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
