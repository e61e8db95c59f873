package config

import (
	"log/slog"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds runtime configuration. Extend as needed.
type Config struct {
	// Server
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Key-value storage
	KVProvider    string `env:"KV_PROVIDER" envDefault:"memory"` // "memory", "redis" or "postgres"
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	DBURL         string `env:"DB_URL"`
	KVPageSize    int    `env:"KV_PAGE_SIZE" envDefault:"100"`

	// LLM
	LLMProvider      string `env:"LLM_PROVIDER" envDefault:"openai"` // "openai" or "anthropic"
	LLMModel         string `env:"LLM_MODEL"`                        // empty selects the provider default
	OpenAIBaseURL    string `env:"OPENAI_BASE_URL"`
	AnthropicBaseURL string `env:"ANTHROPIC_BASE_URL" envDefault:"https://api.anthropic.com/v1"`

	// Sessions
	SessionSecret string        `env:"SESSION_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	CookieSecure  bool          `env:"COOKIE_SECURE" envDefault:"true"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}
