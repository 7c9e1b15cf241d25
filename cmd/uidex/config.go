package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

// Config holds the runtime configuration, loaded from the environment with
// an optional .env file for local development.
type Config struct {
	DBPath string `env:"UIDEX_DB" envDefault:"uidex.db"`

	DetailConcurrency    int           `env:"UIDEX_DETAIL_CONCURRENCY" envDefault:"4"`
	MinRequestDelay      time.Duration `env:"UIDEX_MIN_REQUEST_DELAY" envDefault:"500ms"`
	MaxFailureRate       float64       `env:"UIDEX_MAX_FAILURE_RATE" envDefault:"0.5"`
	JobTimeout           time.Duration `env:"UIDEX_JOB_TIMEOUT" envDefault:"10m"`
	FetchTimeout         time.Duration `env:"UIDEX_FETCH_TIMEOUT" envDefault:"10s"`
	MaxConcurrentSources int           `env:"UIDEX_MAX_CONCURRENT_SOURCES" envDefault:"3"`
	SchedulerTick        time.Duration `env:"UIDEX_SCHEDULER_TICK" envDefault:"1m"`
	RebuildInterval      time.Duration `env:"UIDEX_REBUILD_INTERVAL" envDefault:"5m"`

	LogLevel string `env:"UIDEX_LOG_LEVEL" envDefault:"info"`
}

// LoadConfig reads configuration from the environment. A missing .env file
// is not an error.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse configuration: %w", err)
	}
	return cfg, nil
}
