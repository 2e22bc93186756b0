// Package config loads breed feed settings from defaults, an optional YAML
// file and BREEDS_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/Sternrassler/breed-feed/pkg/cache"
	"github.com/Sternrassler/breed-feed/pkg/client"
	"github.com/Sternrassler/breed-feed/pkg/logging"
	"github.com/Sternrassler/breed-feed/pkg/network"
	"github.com/Sternrassler/breed-feed/pkg/ratelimit"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "BREEDS_"

// Config is the complete configuration.
type Config struct {
	Client   ClientConfig   `yaml:"client"   envPrefix:"CLIENT_"`
	Retry    RetryConfig    `yaml:"retry"    envPrefix:"RETRY_"`
	Store    StoreConfig    `yaml:"store"    envPrefix:"STORE_"`
	Throttle ThrottleConfig `yaml:"throttle" envPrefix:"THROTTLE_"`
	Network  NetworkConfig  `yaml:"network"  envPrefix:"NETWORK_"`
	Proxy    ProxyConfig    `yaml:"proxy"    envPrefix:"PROXY_"`
	Logging  LoggingConfig  `yaml:"logging"  envPrefix:"LOG_"`
}

type ClientConfig struct {
	BaseURL   string `yaml:"base_url"   env:"BASE_URL"`
	UserAgent string `yaml:"user_agent" env:"USER_AGENT"`
}

type RetryConfig struct {
	MaxRetries     int           `yaml:"max_retries"     env:"MAX_RETRIES"`
	Backoff        time.Duration `yaml:"backoff"         env:"BACKOFF"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout" env:"ATTEMPT_TIMEOUT"`
}

type StoreConfig struct {
	Backend    string        `yaml:"backend"     env:"BACKEND"`
	RedisAddr  string        `yaml:"redis_addr"  env:"REDIS_ADDR"`
	RedisDB    int           `yaml:"redis_db"    env:"REDIS_DB"`
	SQLitePath string        `yaml:"sqlite_path" env:"SQLITE_PATH"`
	CacheTTL   time.Duration `yaml:"cache_ttl"   env:"CACHE_TTL"`
}

type ThrottleConfig struct {
	Window   time.Duration `yaml:"window"   env:"WINDOW"`
	Trailing bool          `yaml:"trailing" env:"TRAILING"`
}

type NetworkConfig struct {
	// ProbeURL defaults to the client base URL.
	ProbeURL      string        `yaml:"probe_url"      env:"PROBE_URL"`
	ProbeInterval time.Duration `yaml:"probe_interval" env:"PROBE_INTERVAL"`
	ProbeTimeout  time.Duration `yaml:"probe_timeout"  env:"PROBE_TIMEOUT"`
}

type ProxyConfig struct {
	Listen   string        `yaml:"listen"   env:"LISTEN"`
	Upstream string        `yaml:"upstream" env:"UPSTREAM"`
	Delay    time.Duration `yaml:"delay"    env:"DELAY"`
	Hang     time.Duration `yaml:"hang"     env:"HANG"`
	Simulate string        `yaml:"simulate" env:"SIMULATE"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"  env:"LEVEL"`
	Pretty bool   `yaml:"pretty" env:"PRETTY"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Client: ClientConfig{
			BaseURL:   "http://localhost:3000/api/v2/breeds",
			UserAgent: "breed-feed/0.1.0",
		},
		Retry: RetryConfig{
			MaxRetries:     3,
			Backoff:        2 * time.Second,
			AttemptTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Backend:    cache.BackendSQLite,
			RedisAddr:  "localhost:6379",
			SQLitePath: "breeds.db",
			CacheTTL:   80 * time.Second,
		},
		Throttle: ThrottleConfig{
			Window: ratelimit.DefaultWindow,
		},
		Network: NetworkConfig{
			ProbeInterval: 5 * time.Second,
			ProbeTimeout:  2 * time.Second,
		},
		Proxy: ProxyConfig{
			Listen:   ":3000",
			Upstream: "https://dogapi.dog/api/v2/breeds",
			Delay:    6 * time.Second,
			Hang:     10 * time.Second,
			Simulate: "none",
		},
		Logging: LoggingConfig{
			Level: string(logging.LevelInfo),
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path (skipped when
// path is empty) and then with the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required fields and ranges.
func (c Config) Validate() error {
	var errs []error

	if c.Client.BaseURL == "" {
		errs = append(errs, errors.New("client.base_url is required"))
	}
	if c.Client.UserAgent == "" {
		errs = append(errs, errors.New("client.user_agent is required"))
	}
	if c.Retry.MaxRetries < 0 {
		errs = append(errs, errors.New("retry.max_retries must not be negative"))
	}
	if c.Retry.Backoff < 0 {
		errs = append(errs, errors.New("retry.backoff must not be negative"))
	}
	if c.Retry.AttemptTimeout < 0 {
		errs = append(errs, errors.New("retry.attempt_timeout must not be negative"))
	}
	switch c.Store.Backend {
	case cache.BackendMemory, cache.BackendRedis, cache.BackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("store.backend %q is not one of memory, redis, sqlite", c.Store.Backend))
	}
	if c.Store.CacheTTL <= 0 {
		errs = append(errs, errors.New("store.cache_ttl must be positive"))
	}
	if c.Throttle.Window < 0 {
		errs = append(errs, errors.New("throttle.window must not be negative"))
	}
	if c.Network.ProbeInterval <= 0 {
		errs = append(errs, errors.New("network.probe_interval must be positive"))
	}
	if c.Proxy.Delay < 0 {
		errs = append(errs, errors.New("proxy.delay must not be negative"))
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ClientConfig returns the page client configuration.
func (c Config) ClientConfig() client.Config {
	return client.Config{
		BaseURL:   c.Client.BaseURL,
		UserAgent: c.Client.UserAgent,
	}
}

// RetryConfig returns the retry policy configuration with linear backoff.
func (c Config) RetryConfig() client.RetryConfig {
	return client.RetryConfig{
		MaxRetries:     c.Retry.MaxRetries,
		Backoff:        client.LinearBackoff(c.Retry.Backoff),
		Retryable:      client.IsRetryable,
		AttemptTimeout: c.Retry.AttemptTimeout,
	}
}

// StoreConfig returns the persistence backend configuration.
func (c Config) StoreConfig() cache.Config {
	return cache.Config{
		Backend:    c.Store.Backend,
		RedisAddr:  c.Store.RedisAddr,
		RedisDB:    c.Store.RedisDB,
		SQLitePath: c.Store.SQLitePath,
	}
}

// GateConfig returns the throttle configuration.
func (c Config) GateConfig() ratelimit.GateConfig {
	return ratelimit.GateConfig{
		Window:   c.Throttle.Window,
		Trailing: c.Throttle.Trailing,
	}
}

// ProberConfig returns the connectivity probe configuration.
func (c Config) ProberConfig() network.ProberConfig {
	url := c.Network.ProbeURL
	if url == "" {
		url = c.Client.BaseURL
	}
	return network.ProberConfig{
		URL:      url,
		Interval: c.Network.ProbeInterval,
		Timeout:  c.Network.ProbeTimeout,
	}
}

// LoggingConfig returns the logger configuration writing to stderr.
func (c Config) LoggingConfig() logging.Config {
	level, _ := logging.ParseLevel(c.Logging.Level)
	cfg := logging.DefaultConfig()
	cfg.Level = level
	cfg.Pretty = c.Logging.Pretty
	return cfg
}
