// Package transport executes single physical attempts against the gateway.
//
// This package contains:
//   - Transport interface: one HTTP round trip, classified into gwerr kinds
//   - HTTPTransport: net/http implementation with per-attempt timeouts
//   - Monitor: latency and throttle tracking shared by all attempts
package transport

import (
	"context"
	"net/http"
	"time"
)

// Request is one physical attempt. Body is pre-encoded JSON so every retry
// of a transaction sends identical bytes.
type Request struct {
	Method string
	Path   string
	Body   []byte
	Header http.Header

	// Endpoint is a low-cardinality label for metrics and logs.
	Endpoint string
}

// Response is a successful (2xx) gateway response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Latency    time.Duration
}

// Transport performs a single attempt. Non-success responses and transport
// faults are returned as *gwerr.Error.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
	Close() error
}
