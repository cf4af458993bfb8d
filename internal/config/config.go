package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

const defaultAPIURL = "http://localhost:8000"

type Config struct {
	// Agent backend. SUPPORT_API_URL wins over NEXT_PUBLIC_API_URL.
	APIURL            string `env:"SUPPORT_API_URL"`
	PublicAPIURL      string `env:"NEXT_PUBLIC_API_URL"`
	APITimeoutSeconds int    `env:"SUPPORT_API_TIMEOUT_SECONDS" envDefault:"60"`

	Port    string `env:"PORT" envDefault:"3000"`
	BaseURL string `env:"BASE_URL"`
	DataDir string `env:"DATA_DIR" envDefault:"."`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`

	ExamplesFile       string `env:"EXAMPLES_FILE"`
	SessionTTLMinutes  int    `env:"SESSION_TTL_MINUTES" envDefault:"60"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"10"`
	RateLimitBurst     int    `env:"RATE_LIMIT_BURST" envDefault:"3"`
	HistoryLimit       int    `env:"HISTORY_LIMIT" envDefault:"20"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"support-outcomes"`

	OTelEnabled     bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OTelServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"supportdemo"`
}

func Load() (*Config, error) {
	// .env is optional — env vars may already be set (e.g. in production)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing env: %w", err)
	}

	if cfg.APIURL == "" {
		cfg.APIURL = cfg.PublicAPIURL
	}
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	u, err := url.Parse(cfg.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("SUPPORT_API_URL %q is not an http(s) URL", cfg.APIURL)
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = fmt.Sprintf("http://localhost:%s", cfg.Port)
	}

	for _, req := range []struct {
		name string
		val  int
	}{
		{"SUPPORT_API_TIMEOUT_SECONDS", cfg.APITimeoutSeconds},
		{"SESSION_TTL_MINUTES", cfg.SessionTTLMinutes},
		{"HISTORY_LIMIT", cfg.HistoryLimit},
	} {
		if req.val <= 0 {
			return nil, fmt.Errorf("%s must be positive, got %d", req.name, req.val)
		}
	}
	if cfg.RateLimitPerMinute < 0 || cfg.RateLimitBurst < 0 {
		return nil, fmt.Errorf("rate limit settings must not be negative")
	}

	return cfg, nil
}

func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.APITimeoutSeconds) * time.Second
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}
