package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/runrgateway/pkg/gateway"
	"github.com/vietddude/runrgateway/pkg/gateway/retry"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, expanding ${VAR} references first.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults fills unset fields. Safe to call more than once.
func (c *AppConfig) applyDefaults() {
	c.Gateway.BaseURL = strings.TrimRight(c.Gateway.BaseURL, "/")
	if c.Gateway.Timeout == 0 {
		c.Gateway.Timeout = gateway.DefaultTimeout
	}
	if c.Retry.MaxRetries == nil {
		n := retry.DefaultConfig.MaxRetries
		c.Retry.MaxRetries = &n
	}
	if c.Retry.BaseDelay == 0 {
		c.Retry.BaseDelay = retry.DefaultConfig.BaseDelay
	}
	if c.Retry.MaxDelay == 0 {
		c.Retry.MaxDelay = retry.DefaultConfig.MaxDelay
	}
	if c.Retry.Jitter == nil {
		j := retry.DefaultConfig.Jitter
		c.Retry.Jitter = &j
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Redis.JobTTL == 0 {
		c.Redis.JobTTL = 24 * time.Hour
	}
}

// Validate fills defaults and checks the settings every command needs.
func (c *AppConfig) Validate() error {
	c.applyDefaults()

	var errs []error
	if c.Gateway.BaseURL == "" {
		errs = append(errs, errors.New("gateway.base_url is required"))
	}
	if c.Gateway.AgentID == "" {
		errs = append(errs, errors.New("gateway.agent_id is required"))
	}
	if c.Gateway.Timeout < 0 {
		errs = append(errs, errors.New("gateway.timeout must not be negative"))
	}
	if *c.Retry.MaxRetries < 0 {
		errs = append(errs, errors.New("retry.max_retries must not be negative"))
	}
	if c.Retry.MaxDelay < c.Retry.BaseDelay {
		errs = append(errs, errors.New("retry.max_delay must be at least retry.base_delay"))
	}
	return errors.Join(errs...)
}

// PrivateKey returns the inline key or the contents of private_key_file.
func (c *AppConfig) PrivateKey() (string, error) {
	if c.Gateway.PrivateKey != "" || c.Gateway.PrivateKeyFile == "" {
		return c.Gateway.PrivateKey, nil
	}
	data, err := os.ReadFile(c.Gateway.PrivateKeyFile)
	if err != nil {
		return "", fmt.Errorf("failed to read private key file: %w", err)
	}
	return string(data), nil
}

// RetryPolicy converts the retry section. Unset fields take the defaults.
func (c *AppConfig) RetryPolicy() retry.Config {
	policy := retry.DefaultConfig
	if c.Retry.MaxRetries != nil {
		policy.MaxRetries = *c.Retry.MaxRetries
	}
	if c.Retry.BaseDelay > 0 {
		policy.BaseDelay = c.Retry.BaseDelay
	}
	if c.Retry.MaxDelay > 0 {
		policy.MaxDelay = c.Retry.MaxDelay
	}
	if c.Retry.Jitter != nil {
		policy.Jitter = *c.Retry.Jitter
	}
	return policy
}

// ClientConfig builds the gateway client configuration. Logger, transport
// and job cache are left for the caller to wire.
func (c *AppConfig) ClientConfig() (gateway.Config, error) {
	key, err := c.PrivateKey()
	if err != nil {
		return gateway.Config{}, err
	}
	policy := c.RetryPolicy()
	return gateway.Config{
		BaseURL:            c.Gateway.BaseURL,
		AgentID:            c.Gateway.AgentID,
		AgentPrivateKeyPEM: key,
		DefaultIntent:      c.Gateway.DefaultIntent,
		Timeout:            c.Gateway.Timeout,
		Retry:              &policy,
		StrictTokenAge:     c.Gateway.StrictTokenAge,
	}, nil
}
