package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/checkout-reconciler/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(config.EnvFile, "")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 400*time.Millisecond, cfg.Gateway.Timeout)
	assert.Equal(t, 2, cfg.Fetch.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.Fetch.BaseDelay)
	assert.Equal(t, 2*time.Second, cfg.Dedupe.TTL)
	assert.Equal(t, 3*time.Second, cfg.Poll.Interval)
	assert.Equal(t, 10, cfg.Poll.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Poll.PlaceholderDelay)
	assert.Equal(t, "temp_", cfg.Poll.PlaceholderPrefix)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reconciler.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
poll:
  interval: 4s
  max_attempts: 4
store:
  driver: sqlite
  dsn: file:orders.db
kafka:
  brokers: [kafka-1:9092]
`), 0o600))

	t.Setenv(config.EnvFile, path)
	t.Setenv("RECONCILER_POLL_MAX_ATTEMPTS", "6")
	t.Setenv("RECONCILER_GATEWAY_BASE_URL", "https://gateway.test")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 4*time.Second, cfg.Poll.Interval)
	assert.Equal(t, 6, cfg.Poll.MaxAttempts)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "file:orders.db", cfg.Store.DSN)
	assert.Equal(t, "https://gateway.test", cfg.Gateway.BaseURL)
	assert.Equal(t, []string{"kafka-1:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_CommaSeparatedBrokersFromEnv(t *testing.T) {
	t.Setenv(config.EnvFile, "")
	t.Setenv("RECONCILER_KAFKA_BROKERS", "a:9092, b:9092")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv(config.EnvFile, "")

	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("RECONCILER_STORE_DRIVER", "mongo")
		_, err := config.Load("")
		assert.ErrorContains(t, err, "store.driver")
	})
	t.Run("sqlite without dsn", func(t *testing.T) {
		t.Setenv("RECONCILER_STORE_DRIVER", "sqlite")
		_, err := config.Load("")
		assert.ErrorContains(t, err, "store.dsn")
	})
	t.Run("fetch cannot finish within a tick", func(t *testing.T) {
		t.Setenv("RECONCILER_GATEWAY_TIMEOUT", "10s")
		_, err := config.Load("")
		assert.ErrorContains(t, err, "poll.interval")
	})
	t.Run("missing file", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}
