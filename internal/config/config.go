// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port            string
	FrontendURL     string
	DBPath          string
	SessionTTL      time.Duration
	Provider        ProviderConfig
	Image           ImageConfig
	ConversationLog ConversationLogConfig
}

// ProviderConfig controls the reasoning-provider client.
type ProviderConfig struct {
	APIKey string
	Model  string
	// Timeout bounds every provider call except the initial product
	// resolution, which uses ResolveTimeout. Expiry is a hard failure;
	// no call is retried.
	Timeout        time.Duration
	ResolveTimeout time.Duration
}

// ImageConfig controls product image lookup.
type ImageConfig struct {
	// SearchURL is a template with a %s placeholder for the
	// URL-escaped product name.
	SearchURL string
	Dir       string
	Timeout   time.Duration
}

// ConversationLogConfig controls NDJSON conversation logging.
type ConversationLogConfig struct {
	Enabled   bool
	Dir       string
	QueueSize int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	queueSize := getEnvInt("CONVERSATION_LOG_QUEUE_SIZE", 1000)
	if queueSize <= 0 {
		queueSize = 1000
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8000"),
		FrontendURL: getEnv("FRONTEND_URL", ""),
		DBPath:      getEnv("DB_PATH", "./data/shopbot.db"),
		SessionTTL:  getEnvDuration("SESSION_TTL", 60*time.Minute),
		Provider: ProviderConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			Model:          getEnv("OPENAI_MODEL", "gpt-4o"),
			Timeout:        getEnvDuration("PROVIDER_TIMEOUT", 60*time.Second),
			ResolveTimeout: getEnvDuration("RESOLVE_TIMEOUT", 120*time.Second),
		},
		Image: ImageConfig{
			SearchURL: getEnv("IMAGE_SEARCH_URL", "https://image-search.invalid/first?q=%s"),
			Dir:       getEnv("IMAGE_DIR", "./data/img_results"),
			Timeout:   getEnvDuration("IMAGE_TIMEOUT", 60*time.Second),
		},
		ConversationLog: ConversationLogConfig{
			Enabled:   getEnvBool("CONVERSATION_LOG_ENABLED", true),
			Dir:       getEnv("CONVERSATION_LOG_DIR", "./data/logs/conversations"),
			QueueSize: queueSize,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.Provider.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY cannot be empty")
	}
	if c.Provider.Model == "" {
		return fmt.Errorf("OPENAI_MODEL cannot be empty")
	}
	if c.Provider.Timeout <= 0 || c.Provider.ResolveTimeout <= 0 {
		return fmt.Errorf("provider timeouts must be > 0")
	}
	if c.Image.SearchURL == "" || !strings.Contains(c.Image.SearchURL, "%s") {
		return fmt.Errorf("IMAGE_SEARCH_URL must contain a %%s placeholder")
	}
	if c.Image.Dir == "" {
		return fmt.Errorf("IMAGE_DIR cannot be empty")
	}
	if c.ConversationLog.Enabled && c.ConversationLog.Dir == "" {
		return fmt.Errorf("CONVERSATION_LOG_DIR cannot be empty")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
