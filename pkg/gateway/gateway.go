// Package gateway is a client for the runr gateway: it issues capability
// tokens and proxies tool invocations through the gateway with correlation
// tracking, idempotency keys, typed errors and retry with backoff.
//
// A Client is safe for concurrent use. Each call is one logical transaction;
// retries of a transaction are strictly sequential and only block the calling
// goroutine.
package gateway

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vietddude/runrgateway/pkg/gateway/domain"
	"github.com/vietddude/runrgateway/pkg/gateway/jobcache"
	"github.com/vietddude/runrgateway/pkg/gateway/retry"
	"github.com/vietddude/runrgateway/pkg/gateway/transport"
)

// Re-exported wire types.
type (
	TokenOptions = domain.TokenOptions
	Job          = domain.Job
	JobStatus    = domain.JobStatus
)

const (
	JobQueued  = domain.JobQueued
	JobRunning = domain.JobRunning
	JobDone    = domain.JobDone
	JobFailed  = domain.JobFailed
)

const (
	DefaultTimeout     = 6 * time.Second
	DefaultMaxTokenAge = 24 * time.Hour

	autoTokenTTLMinutes = 10
)

// Config holds client construction parameters.
type Config struct {
	BaseURL string
	AgentID string
	// AgentPrivateKeyPEM is held for the lifetime of the client and never logged.
	AgentPrivateKeyPEM string
	DefaultIntent      string

	// Timeout bounds each physical attempt. Defaults to DefaultTimeout.
	Timeout time.Duration

	// Retry overrides retry.DefaultConfig when set.
	Retry *retry.Config

	// MaxTokenAge is the client-side age limit for tokens. Defaults to 24h.
	MaxTokenAge time.Duration
	// StrictTokenAge rejects tokens whose issue time cannot be decoded
	// instead of treating them as freshly issued.
	StrictTokenAge bool

	Logger *slog.Logger

	// Transport overrides the default HTTP transport.
	Transport transport.Transport
	// JobCache stores terminal job statuses. Optional.
	JobCache jobcache.Cache

	// OnRotationRecommended is called when the gateway recommends rotating
	// the token used for a proxy call.
	OnRotationRecommended func(RotationHint)
}

// Client talks to one gateway on behalf of one agent.
type Client struct {
	cfg       Config
	transport transport.Transport
	retry     retry.Config
	logger    *slog.Logger
	jobs      jobcache.Cache
	tokens    *tokenCache
	now       func() time.Time

	mu     sync.RWMutex
	intent string
}

// New creates a client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("gateway: base URL is required")
	}
	if cfg.AgentID == "" {
		return nil, errors.New("gateway: agent id is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxTokenAge <= 0 {
		cfg.MaxTokenAge = DefaultMaxTokenAge
	}

	c := &Client{
		cfg:       cfg,
		transport: cfg.Transport,
		retry:     retry.DefaultConfig,
		logger:    cfg.Logger,
		jobs:      cfg.JobCache,
		tokens:    newTokenCache(),
		now:       time.Now,
		intent:    cfg.DefaultIntent,
	}
	if cfg.Retry != nil {
		c.retry = *cfg.Retry
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.transport == nil {
		c.transport = transport.NewHTTPTransport(cfg.BaseURL, cfg.Timeout)
	}

	return c, nil
}

// SetIntent sets the intent label attached to subsequent proxy calls.
func (c *Client) SetIntent(intent string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.intent = intent
}

// Intent returns the current intent label.
func (c *Client) Intent() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.intent
}

// Stats returns transport monitoring stats when the default HTTP transport
// is in use.
func (c *Client) Stats() (transport.MonitorStats, bool) {
	if ht, ok := c.transport.(*transport.HTTPTransport); ok {
		return ht.Monitor.Stats(), true
	}
	return transport.MonitorStats{}, false
}

// Close releases the transport and the job cache.
func (c *Client) Close() error {
	var errs []error
	if err := c.transport.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close transport: %w", err))
	}
	if c.jobs != nil {
		if err := c.jobs.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close job cache: %w", err))
		}
	}
	return errors.Join(errs...)
}
