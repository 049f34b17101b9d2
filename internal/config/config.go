package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port          string `envconfig:"PORT" default:"8080"`
	AllowedOrigin string `envconfig:"ALLOWED_ORIGIN" default:"http://127.0.0.1:3000"`

	// An empty DatabaseURL runs the seeded in-memory store.
	DatabaseURL string `envconfig:"DATABASE_URL"`
	AutoMigrate bool   `envconfig:"AUTO_MIGRATE" default:"true"`

	RedisAddr             string `envconfig:"REDIS_ADDR"`
	RedisPassword         string `envconfig:"REDIS_PASSWORD"`
	RedisDB               int    `envconfig:"REDIS_DB" default:"0"`
	ReportCacheTTLSeconds int    `envconfig:"REPORT_CACHE_TTL_SECONDS" default:"30"`

	// ReportTimezone is the IANA zone whose calendar days report ranges use.
	ReportTimezone string `envconfig:"REPORT_TIMEZONE" default:"UTC"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	RateLimitPerMinute int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"240"`
}

// Load reads an optional .env file from the working directory, then the
// process environment. Real environment variables win over .env entries.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	cfg.RedisAddr = strings.TrimSpace(cfg.RedisAddr)
	return cfg, nil
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) ReportCacheTTL() time.Duration {
	return time.Duration(c.ReportCacheTTLSeconds) * time.Second
}

func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(strings.TrimSpace(c.ReportTimezone))
	if err != nil {
		return nil, fmt.Errorf("REPORT_TIMEZONE: %w", err)
	}
	return loc, nil
}
