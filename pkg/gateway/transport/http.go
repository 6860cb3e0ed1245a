package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vietddude/runrgateway/internal/metrics"
	"github.com/vietddude/runrgateway/pkg/gateway/gwerr"
)

// DefaultUserAgent identifies this client to the gateway.
const DefaultUserAgent = "runrgateway-go/1.0.0"

// HTTPTransport implements Transport over net/http.
type HTTPTransport struct {
	baseURL    string
	timeout    time.Duration
	userAgent  string
	httpClient *http.Client

	Monitor *Monitor
}

// NewHTTPTransport creates a transport for the gateway at baseURL. timeout
// bounds each physical attempt; zero disables the per-attempt bound.
func NewHTTPTransport(baseURL string, timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		baseURL:   strings.TrimRight(baseURL, "/"),
		timeout:   timeout,
		userAgent: DefaultUserAgent,
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		Monitor: NewMonitor(),
	}
}

// WithHTTPClient swaps the underlying client, e.g. for custom TLS.
func (t *HTTPTransport) WithHTTPClient(c *http.Client) *HTTPTransport {
	t.httpClient = c
	return t
}

// BaseURL returns the gateway base URL without a trailing slash.
func (t *HTTPTransport) BaseURL() string {
	return t.baseURL
}

// Do performs one attempt.
func (t *HTTPTransport) Do(ctx context.Context, r *Request) (*Response, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, t.baseURL+r.Path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", t.userAgent)

	metrics.AttemptsTotal.WithLabelValues(r.Endpoint).Inc()
	start := time.Now()

	resp, err := t.httpClient.Do(req)
	if err != nil {
		// The caller giving up says nothing about the gateway.
		if !errors.Is(err, context.Canceled) {
			t.Monitor.RecordNetworkFailure()
		}
		return nil, gwerr.FromTransport(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	latency := time.Since(start)
	metrics.AttemptLatency.WithLabelValues(r.Endpoint).Observe(latency.Seconds())
	if err != nil {
		t.Monitor.RecordNetworkFailure()
		return nil, gwerr.FromTransport(fmt.Errorf("read response: %w", err))
	}
	t.Monitor.RecordRequest(latency)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		gwErr := gwerr.FromResponse(
			resp.StatusCode,
			errorMessage(resp.StatusCode, respBody),
			resp.Header.Get("Retry-After"),
		)
		switch gwErr.Kind {
		case gwerr.KindRateLimit:
			t.Monitor.RecordThrottle(gwErr.RetryAfter)
		case gwerr.KindAuth:
			t.Monitor.RecordAuthFailure()
		}
		return nil, gwErr
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
		Latency:    latency,
	}, nil
}

// Close releases idle connections.
func (t *HTTPTransport) Close() error {
	t.httpClient.CloseIdleConnections()
	return nil
}

// errorMessage extracts {"error": "..."} from a failure body.
func errorMessage(status int, body []byte) string {
	if len(bytes.TrimSpace(body)) == 0 {
		return "Unknown error"
	}

	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error == "" {
		return fmt.Sprintf("HTTP %d", status)
	}
	return envelope.Error
}
