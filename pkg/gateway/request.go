package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/vietddude/runrgateway/internal/metrics"
	"github.com/vietddude/runrgateway/pkg/gateway/gwerr"
	"github.com/vietddude/runrgateway/pkg/gateway/requestid"
	"github.com/vietddude/runrgateway/pkg/gateway/retry"
	"github.com/vietddude/runrgateway/pkg/gateway/transport"
)

var sensitiveKeys = []string{"password", "token", "key", "secret", "api_key"}

// MaskParams returns a shallow copy of params safe for logging.
func MaskParams(params map[string]any) map[string]any {
	masked := make(map[string]any, len(params))
	for k, v := range params {
		masked[k] = v
	}
	for _, k := range sensitiveKeys {
		if _, ok := masked[k]; ok {
			masked[k] = "***MASKED***"
		}
	}
	return masked
}

// send runs one logical transaction through the retry pipeline. The
// correlation id is generated once and reused by every attempt.
func (c *Client) send(
	ctx context.Context,
	method, path, endpoint string,
	body any,
	header http.Header,
) (*transport.Response, string, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, "", fmt.Errorf("encode %s request: %w", endpoint, err)
		}
	}

	correlationID := requestid.NewCorrelationID()
	if header == nil {
		header = http.Header{}
	}
	header.Set(requestid.CorrelationHeader, correlationID)

	req := &transport.Request{
		Method:   method,
		Path:     path,
		Body:     payload,
		Header:   header,
		Endpoint: endpoint,
	}

	cfg := c.retry
	userHook := cfg.OnRetry
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		kind := gwerr.KindOf(err)
		metrics.RetriesTotal.WithLabelValues(endpoint, kind.String()).Inc()
		c.logger.Warn("Retrying gateway request",
			"endpoint", endpoint,
			"correlation_id", correlationID,
			"attempt", attempt+1,
			"delay", delay,
			"error", err,
		)
		if userHook != nil {
			userHook(attempt, err, delay)
		}
	}

	c.logger.Debug("Gateway request", "endpoint", endpoint, "method", method, "correlation_id", correlationID)

	resp, err := retry.Do(ctx, cfg, func(ctx context.Context, attempt int) (*transport.Response, error) {
		return c.transport.Do(ctx, req)
	})
	if err != nil {
		metrics.RequestsTotal.WithLabelValues(endpoint, "error").Inc()
		metrics.ErrorsTotal.WithLabelValues(endpoint, gwerr.KindOf(err).String()).Inc()
		return nil, correlationID, err
	}

	metrics.RequestsTotal.WithLabelValues(endpoint, "success").Inc()
	return resp, correlationID, nil
}

// decode parses a success body; a malformed body is a Generic error.
func decode(resp *transport.Response, v any) error {
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return gwerr.New(gwerr.KindGeneric, resp.StatusCode, fmt.Sprintf("decode response: %v", err))
	}
	return nil
}
