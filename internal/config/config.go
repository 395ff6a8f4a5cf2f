// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the planner server configuration.
type Config struct {
	Port             string
	FrontendURL      string
	DBPath           string
	SessionRetention time.Duration
	MaxBodyBytes     int64
	Model            ModelConfig
	RateLimit        RateLimitConfig
	ConversationLog  ConversationLogConfig
}

// ModelConfig selects the language model provider.
type ModelConfig struct {
	Provider        string // "gemini", "openai", "anthropic", "echo"
	Name            string
	GoogleAPIKey    string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	Temperature     float64
	MaxTokens       int
}

// RateLimitConfig bounds generation requests per user.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// ConversationLogConfig controls NDJSON conversation logging.
type ConversationLogConfig struct {
	Enabled    bool
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// ClientConfig holds settings for the planner terminal client.
type ClientConfig struct {
	Endpoint        string
	EventsURL       string
	UserID          string
	CacheBackend    string
	CachePath       string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	GenerateTimeout time.Duration
	DirectoryTTL    time.Duration
	Currency        string
}

// Load reads server configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		FrontendURL:      getEnv("FRONTEND_URL", ""),
		DBPath:           getEnv("DB_PATH", "./data/planner.db"),
		SessionRetention: getEnvDuration("SESSION_RETENTION", 30*24*time.Hour),
		MaxBodyBytes:     int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
		Model: ModelConfig{
			Provider:        strings.ToLower(getEnv("MODEL_PROVIDER", "gemini")),
			Name:            getEnv("MODEL_NAME", ""),
			GoogleAPIKey:    getEnv("GOOGLE_API_KEY", ""),
			OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
			AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
			Temperature:     getEnvFloat("MODEL_TEMPERATURE", 0.7),
			MaxTokens:       getEnvInt("MODEL_MAX_TOKENS", 4096),
		},
		RateLimit: RateLimitConfig{
			Requests: getEnvInt("RATE_LIMIT_REQUESTS", 20),
			Window:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		ConversationLog: ConversationLogConfig{
			Enabled:    getEnvBool("CONVERSATION_LOG_ENABLED", true),
			Path:       getEnv("CONVERSATION_LOG_PATH", "./data/logs/conversations.ndjson"),
			MaxSizeMB:  getEnvInt("CONVERSATION_LOG_MAX_SIZE_MB", 50),
			MaxBackups: getEnvInt("CONVERSATION_LOG_MAX_BACKUPS", 5),
			MaxAgeDays: getEnvInt("CONVERSATION_LOG_MAX_AGE_DAYS", 30),
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
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be > 0")
	}
	if c.RateLimit.Requests <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be > 0")
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be > 0")
	}
	switch c.Model.Provider {
	case "gemini":
		if c.Model.GoogleAPIKey == "" {
			return fmt.Errorf("GOOGLE_API_KEY is required for the gemini provider")
		}
	case "openai":
		if c.Model.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
	case "anthropic":
		if c.Model.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case "echo":
	default:
		return fmt.Errorf("unknown MODEL_PROVIDER %q", c.Model.Provider)
	}
	if c.ConversationLog.Enabled && c.ConversationLog.Path == "" {
		return fmt.Errorf("CONVERSATION_LOG_PATH cannot be empty")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

// LoadClient reads terminal client configuration from environment variables.
func LoadClient() (*ClientConfig, error) {
	cfg := &ClientConfig{
		Endpoint:        getEnv("PLANNER_ENDPOINT", "http://localhost:8080/"),
		EventsURL:       getEnv("PLANNER_EVENTS_URL", ""),
		UserID:          strings.TrimSpace(getEnv("PLANNER_USER_ID", "")),
		CacheBackend:    strings.ToLower(getEnv("PLANNER_CACHE_BACKEND", "sqlite")),
		CachePath:       getEnv("PLANNER_CACHE_PATH", defaultCachePath()),
		RedisAddr:       getEnv("PLANNER_REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("PLANNER_REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("PLANNER_REDIS_DB", 0),
		GenerateTimeout: getEnvDuration("PLANNER_GENERATE_TIMEOUT", 2*time.Minute),
		DirectoryTTL:    getEnvDuration("PLANNER_DIRECTORY_TTL", 30*time.Second),
		Currency:        getEnv("PLANNER_CURRENCY", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the client configuration.
func (c *ClientConfig) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("PLANNER_ENDPOINT cannot be empty")
	}
	switch c.CacheBackend {
	case "sqlite":
		if c.CachePath == "" {
			return fmt.Errorf("PLANNER_CACHE_PATH cannot be empty")
		}
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("PLANNER_REDIS_ADDR cannot be empty")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown PLANNER_CACHE_BACKEND %q", c.CacheBackend)
	}
	if c.GenerateTimeout <= 0 {
		return fmt.Errorf("PLANNER_GENERATE_TIMEOUT must be > 0")
	}
	if c.DirectoryTTL < 0 {
		return fmt.Errorf("PLANNER_DIRECTORY_TTL must be >= 0")
	}
	return nil
}

func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "./data/planner-cache.db"
	}
	return dir + string(os.PathSeparator) + "eventplanner" + string(os.PathSeparator) + "session.db"
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

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

// getEnvDuration accepts Go duration strings ("90s") or bare seconds ("90").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
