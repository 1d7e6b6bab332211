package config

import (
	"log/slog"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds runtime configuration for every process. Each process reads
// only the keys it needs.
type Config struct {
	// Server
	Port        int      `env:"PORT" envDefault:"8080"`
	LogLevel    string   `env:"LOG_LEVEL" envDefault:"info"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"https://localhost:3000"`

	// Suggestion limits
	MaxImages     int     `env:"SUGGEST_MAX_IMAGES" envDefault:"10"`
	MaxTextLength int     `env:"SUGGEST_MAX_TEXT" envDefault:"20000"`
	RatePerSecond float64 `env:"RATE_PER_SECOND" envDefault:"5"`
	MaxConcurrent int     `env:"MAX_CONCURRENT" envDefault:"4"`

	// Store
	StoreProvider string `env:"STORE_PROVIDER" envDefault:"postgres"` // "postgres" (suggestion history)
	DBURL         string `env:"DB_URL"`

	// Queue
	QueueProvider string `env:"QUEUE_PROVIDER" envDefault:"nats"` // "nats" (gateway to recorder)
	QueueURL      string `env:"QUEUE_URL"`

	// Cache
	CacheProvider string `env:"CACHE_PROVIDER" envDefault:"redis"` // "redis", or "none" to disable
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	CacheTTL      int    `env:"CACHE_TTL" envDefault:"3600"` // seconds

	// LLM
	LLMProvider  string `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIKey    string `env:"OPENAI_API_KEY"`
	LLMModel     string `env:"LLM_MODEL" envDefault:"gpt-4o"`
	LLMMaxTokens int64  `env:"LLM_MAX_TOKENS" envDefault:"1000"`

	// Pane client
	BackendURL           string `env:"BACKEND_URL" envDefault:"http://localhost:8080"`
	ClientTimeoutSeconds int    `env:"CLIENT_TIMEOUT_SECONDS" envDefault:"60"`
}

// CacheTTLDuration returns CacheTTL as a duration.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// ClientTimeout returns the pane's HTTP timeout.
func (c Config) ClientTimeout() time.Duration {
	return time.Duration(c.ClientTimeoutSeconds) * time.Second
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}
