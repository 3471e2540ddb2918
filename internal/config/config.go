// Package config loads reconciler settings from defaults, an optional YAML
// file and RECONCILER_* environment variables, in increasing precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/example/checkout-reconciler/internal/gateway"
)

const (
	EnvPrefix = "RECONCILER"
	// EnvFile names the variable holding an optional config file path.
	EnvFile = "RECONCILER_CONFIG"
)

type Config struct {
	HTTP    AddrConfig    `mapstructure:"http"`
	GRPC    AddrConfig    `mapstructure:"grpc"`
	Metrics AddrConfig    `mapstructure:"metrics"`
	Gateway GatewayConfig `mapstructure:"gateway"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Dedupe  DedupeConfig  `mapstructure:"dedupe"`
	Poll    PollConfig    `mapstructure:"poll"`
	Store   StoreConfig   `mapstructure:"store"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
}

type AddrConfig struct {
	Addr string `mapstructure:"addr"`
}

type GatewayConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type FetchConfig struct {
	MaxRetries int           `mapstructure:"max_retries"`
	BaseDelay  time.Duration `mapstructure:"base_delay"`
}

type DedupeConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type PollConfig struct {
	Interval          time.Duration `mapstructure:"interval"`
	MaxAttempts       int           `mapstructure:"max_attempts"`
	PlaceholderDelay  time.Duration `mapstructure:"placeholder_delay"`
	PlaceholderPrefix string        `mapstructure:"placeholder_prefix"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("grpc.addr", ":50051")
	v.SetDefault("metrics.addr", ":9102")
	v.SetDefault("gateway.base_url", "http://localhost:8090")
	v.SetDefault("gateway.api_key", "")
	v.SetDefault("gateway.timeout", "400ms")
	v.SetDefault("fetch.max_retries", 2)
	v.SetDefault("fetch.base_delay", "500ms")
	v.SetDefault("dedupe.ttl", "2s")
	v.SetDefault("poll.interval", "3s")
	v.SetDefault("poll.max_attempts", 10)
	v.SetDefault("poll.placeholder_delay", "2s")
	v.SetDefault("poll.placeholder_prefix", "temp_")
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.dsn", "")
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "payments.decisions")
	v.SetDefault("kafka.group_id", "notify-worker")
}

// Load reads path when non-empty, else the file named by RECONCILER_CONFIG
// if set. A missing file is an error only when one was asked for.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvFile)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Kafka.Brokers = splitBrokers(cfg.Kafka.Brokers)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver)
	}
	if c.Store.Driver != "memory" && c.Store.DSN == "" {
		return fmt.Errorf("store.dsn is required for driver %q", c.Store.Driver)
	}
	if c.Poll.Interval <= 0 {
		return fmt.Errorf("poll.interval must be positive")
	}
	if c.Poll.MaxAttempts <= 0 {
		return fmt.Errorf("poll.max_attempts must be positive")
	}
	if c.Fetch.MaxRetries < 0 {
		return fmt.Errorf("fetch.max_retries must not be negative")
	}
	if c.Gateway.BaseURL == "" {
		return fmt.Errorf("gateway.base_url is required")
	}
	if c.Gateway.Timeout <= 0 {
		return fmt.Errorf("gateway.timeout must be positive")
	}
	if worst := gateway.WorstCase(c.Fetch.MaxRetries, c.Fetch.BaseDelay, c.Gateway.Timeout); worst >= c.Poll.Interval {
		return fmt.Errorf("gateway.timeout %s with fetch.max_retries %d and fetch.base_delay %s can take %s, which does not fit in poll.interval %s",
			c.Gateway.Timeout, c.Fetch.MaxRetries, c.Fetch.BaseDelay, worst, c.Poll.Interval)
	}
	return nil
}

// splitBrokers accepts both a YAML list and a comma separated env value.
func splitBrokers(in []string) []string {
	var out []string
	for _, b := range in {
		for _, part := range strings.Split(b, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
