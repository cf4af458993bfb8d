package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.APIURL)
	assert.Equal(t, 60*time.Second, cfg.APITimeout())
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "http://localhost:3000", cfg.BaseURL)
	assert.Equal(t, time.Hour, cfg.SessionTTL())
	assert.Equal(t, 10, cfg.RateLimitPerMinute)
	assert.Equal(t, "support-outcomes", cfg.KafkaTopic)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.OTelEnabled)
}

func TestLoad_APIURLOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("NEXT_PUBLIC_API_URL", "http://agent.internal:9000")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://agent.internal:9000", cfg.APIURL)

	t.Setenv("SUPPORT_API_URL", "https://agent.example.com")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "https://agent.example.com", cfg.APIURL)
}

func TestLoad_InvalidAPIURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("SUPPORT_API_URL", "localhost:8000")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SUPPORT_API_URL")
}

func TestLoad_NonPositiveTimeout(t *testing.T) {
	clearEnv(t)
	t.Setenv("SUPPORT_API_TIMEOUT_SECONDS", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SUPPORT_API_TIMEOUT_SECONDS")
}

func TestLoad_KafkaBrokers(t *testing.T) {
	clearEnv(t)
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SUPPORT_API_URL", "NEXT_PUBLIC_API_URL", "SUPPORT_API_TIMEOUT_SECONDS",
		"PORT", "BASE_URL", "DATA_DIR", "LOG_LEVEL", "LOG_FILE", "EXAMPLES_FILE",
		"SESSION_TTL_MINUTES", "RATE_LIMIT_PER_MINUTE", "RATE_LIMIT_BURST",
		"HISTORY_LIMIT", "KAFKA_BROKERS", "KAFKA_TOPIC", "OTEL_ENABLED", "OTEL_SERVICE_NAME",
	} {
		orig, wasSet := os.LookupEnv(key)
		if wasSet {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}
