package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/vietddude/runrgateway/internal/metrics"
	"github.com/vietddude/runrgateway/pkg/gateway/domain"
	"github.com/vietddude/runrgateway/pkg/gateway/gwerr"
	"github.com/vietddude/runrgateway/pkg/gateway/requestid"
)

const (
	headerRotationRecommended = "X-Token-Rotation-Recommended"
	headerTokenExpiresAt      = "X-Token-Expires-At"
)

// ProxyRequest describes one proxied tool invocation.
type ProxyRequest struct {
	Tool   string
	Action string
	Params map[string]any

	// Token is used as is; when empty a token scoped to Tool is acquired.
	Token string
	// ProofPayload, when set, is sent JSON-encoded as proof_payload.
	ProofPayload map[string]any

	// IdempotencyKey overrides the generated key.
	IdempotencyKey string
	// ContentKey derives the key from tool, action and params instead of
	// generating a random one.
	ContentKey bool
}

// RotationHint is the gateway's advice to refresh a token before it expires.
type RotationHint struct {
	Recommended bool
	ExpiresAt   string
	Tool        string
}

// ProxyResult is a synchronous proxy response.
type ProxyResult struct {
	Success       bool
	Data          json.RawMessage
	Metadata      map[string]any
	Rotation      RotationHint
	CorrelationID string
}

// Proxy invokes a tool action through the gateway and returns the data field
// of the response envelope.
func (c *Client) Proxy(ctx context.Context, req ProxyRequest) (json.RawMessage, error) {
	res, err := c.ProxyDetailed(ctx, req)
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

// ProxyDetailed is Proxy returning the whole envelope and rotation hint.
func (c *Client) ProxyDetailed(ctx context.Context, req ProxyRequest) (*ProxyResult, error) {
	body, header, err := c.buildProxy(ctx, req, false)
	if err != nil {
		return nil, err
	}

	resp, correlationID, err := c.send(ctx, http.MethodPost, "/api/proxy-request", "proxy-request", body, header)
	if err != nil {
		return nil, err
	}

	var env domain.ProxyEnvelope
	if err := decode(resp, &env); err != nil {
		return nil, err
	}

	hint := RotationHint{
		Recommended: resp.Header.Get(headerRotationRecommended) == "true",
		ExpiresAt:   resp.Header.Get(headerTokenExpiresAt),
		Tool:        req.Tool,
	}
	if hint.Recommended {
		c.handleRotation(body.AgentToken, correlationID, hint)
	}

	return &ProxyResult{
		Success:       env.Success,
		Data:          env.Data,
		Metadata:      env.Metadata,
		Rotation:      hint,
		CorrelationID: correlationID,
	}, nil
}

// ProxyAsync submits a proxied invocation as a job and returns its id
// without waiting for completion.
func (c *Client) ProxyAsync(ctx context.Context, req ProxyRequest) (string, error) {
	body, header, err := c.buildProxy(ctx, req, true)
	if err != nil {
		return "", err
	}

	resp, _, err := c.send(ctx, http.MethodPost, "/api/proxy-request", "proxy-request-async", body, header)
	if err != nil {
		return "", err
	}

	var ar domain.AsyncResponse
	if err := decode(resp, &ar); err != nil {
		return "", err
	}
	if ar.JobID == "" {
		return "", gwerr.New(gwerr.KindGeneric, resp.StatusCode, "response has no job_id")
	}
	return ar.JobID, nil
}

// buildProxy resolves the token, checks its age and assembles the request.
// A stale token fails here, before any network call.
func (c *Client) buildProxy(ctx context.Context, req ProxyRequest, async bool) (*domain.ProxyBody, http.Header, error) {
	if req.Tool == "" || req.Action == "" {
		return nil, nil, errors.New("gateway: tool and action are required")
	}

	token := req.Token
	if token == "" {
		var err error
		token, err = c.autoToken(ctx, req.Tool)
		if err != nil {
			return nil, nil, err
		}
	}
	if err := c.checkTokenAge(token); err != nil {
		return nil, nil, err
	}

	params := req.Params
	if params == nil {
		params = map[string]any{}
	}

	body := &domain.ProxyBody{
		AgentToken: token,
		Tool:       req.Tool,
		Action:     req.Action,
		Params:     params,
		Intent:     c.Intent(),
		Async:      async,
	}
	if len(req.ProofPayload) > 0 {
		proof, err := json.Marshal(req.ProofPayload)
		if err != nil {
			return nil, nil, fmt.Errorf("encode proof payload: %w", err)
		}
		body.ProofPayload = string(proof)
	}

	key := req.IdempotencyKey
	if key == "" && req.ContentKey {
		var err error
		key, err = requestid.IdempotencyKeyFor(req.Tool, req.Action, params)
		if err != nil {
			return nil, nil, err
		}
	}
	if key == "" {
		key = requestid.NewIdempotencyKey()
	}

	header := http.Header{}
	header.Set(requestid.IdempotencyHeader, key)

	c.logger.Debug("Proxy request",
		"tool", req.Tool,
		"action", req.Action,
		"params", MaskParams(params),
		"async", async,
		"idempotency_key", key,
	)

	return body, header, nil
}

func (c *Client) handleRotation(token, correlationID string, hint RotationHint) {
	metrics.TokenRotationsRecommended.Inc()
	evicted := c.tokens.evict(hint.Tool, token)
	c.logger.Warn("Token rotation recommended",
		"tool", hint.Tool,
		"expires_at", hint.ExpiresAt,
		"correlation_id", correlationID,
		"evicted_cached_token", evicted,
	)
	if c.cfg.OnRotationRecommended != nil {
		c.cfg.OnRotationRecommended(hint)
	}
}
