package config

import (
	"time"

	"github.com/vietddude/runrgateway/pkg/gateway/jobcache"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Gateway GatewayConfig        `yaml:"gateway"`
	Retry   RetryConfig          `yaml:"retry"`
	Redis   jobcache.RedisConfig `yaml:"redis"`
	Metrics MetricsConfig        `yaml:"metrics"`
	Logging LoggingConfig        `yaml:"logging"`
}

// GatewayConfig holds the client construction parameters.
type GatewayConfig struct {
	BaseURL        string        `yaml:"base_url"`
	AgentID        string        `yaml:"agent_id"`
	PrivateKey     string        `yaml:"private_key"`
	PrivateKeyFile string        `yaml:"private_key_file"` // read when private_key is empty
	DefaultIntent  string        `yaml:"default_intent"`
	Timeout        time.Duration `yaml:"timeout"`
	StrictTokenAge bool          `yaml:"strict_token_age"`
}

// RetryConfig mirrors retry.Config. Jitter is a pointer so an omitted key
// keeps the default (on).
type RetryConfig struct {
	MaxRetries *int          `yaml:"max_retries"`
	BaseDelay  time.Duration `yaml:"base_delay"`
	MaxDelay   time.Duration `yaml:"max_delay"`
	Jitter     *bool         `yaml:"jitter"`
}

// MetricsConfig holds the Prometheus endpoint settings. Port 0 disables it.
type MetricsConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}
