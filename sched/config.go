package sched

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix is the prefix for environment variable overrides.
	EnvPrefix = "BEACON_"
	// Delimiter is the key delimiter for nested config.
	Delimiter = "."
)

// Config holds scheduler configuration. Zero limit values mean
// "no limit".
type Config struct {
	// Workers is the number of pool worker goroutines.
	Workers int `koanf:"workers"`

	// QueueDepth is the pool task queue buffer size.
	QueueDepth int `koanf:"queue_depth"`

	// RateLimit is the maximum sustained task starts per second.
	RateLimit float64 `koanf:"rate_limit"`

	// RateBurst is the burst size for the token-bucket rate limiter.
	RateBurst int `koanf:"rate_burst"`

	// MaxConcurrent caps simultaneously running tasks.
	MaxConcurrent int `koanf:"max_concurrent"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:    8,
		QueueDepth: 256,
	}
}

// LoadConfig loads scheduler configuration with the following precedence,
// lowest first: defaults, the optional YAML file at path, then environment
// variables prefixed with BEACON_ (e.g. BEACON_WORKERS=16).
func LoadConfig(path string) (Config, error) {
	k := koanf.New(Delimiter)

	defaults := DefaultConfig()
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"workers":        defaults.Workers,
		"queue_depth":    defaults.QueueDepth,
		"rate_limit":     defaults.RateLimit,
		"rate_burst":     defaults.RateBurst,
		"max_concurrent": defaults.MaxConcurrent,
	}, Delimiter), nil); err != nil {
		return Config{}, fmt.Errorf("sched: load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("sched: load config file %q: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, Delimiter, func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return Config{}, fmt.Errorf("sched: load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("sched: unmarshal config: %w", err)
	}

	if cfg.Workers <= 0 {
		return Config{}, fmt.Errorf("sched: workers must be positive, got %d", cfg.Workers)
	}
	if cfg.QueueDepth < 0 {
		return Config{}, fmt.Errorf("sched: queue_depth must be non-negative, got %d", cfg.QueueDepth)
	}

	return cfg, nil
}

// Build constructs a started scheduler from the config: a worker Pool,
// wrapped in a Limiter when rate or concurrency limits are set. The
// returned stop function shuts the pool down.
func (c Config) Build(logger *slog.Logger) (Scheduler, func(context.Context) error) {
	if logger == nil {
		logger = slog.Default()
	}

	pool := NewPool(
		WithWorkers(c.Workers),
		WithQueueDepth(c.QueueDepth),
		WithPoolLogger(logger),
	)
	pool.Start()

	var s Scheduler = pool
	if c.RateLimit > 0 || c.MaxConcurrent > 0 {
		s = NewLimiter(pool,
			WithRateLimit(c.RateLimit, c.RateBurst),
			WithMaxConcurrent(c.MaxConcurrent),
		)
	}

	return s, pool.Stop
}
