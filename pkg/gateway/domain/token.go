// Package domain holds the wire-level types shared by the gateway client
// packages.
package domain

import "encoding/json"

// TokenOptions scopes a capability token.
type TokenOptions struct {
	Tools       []string
	Permissions []string
	TTLMinutes  int
}

type TokenRequest struct {
	AgentID     string   `json:"agent_id"`
	Tools       []string `json:"tools"`
	Permissions []string `json:"permissions"`
	ExpiresAt   string   `json:"expires_at"`
}

type TokenResponse struct {
	AgentToken string `json:"agent_token"`
}

// ProxyBody is the body of POST /api/proxy-request.
type ProxyBody struct {
	AgentToken   string         `json:"agent_token"`
	Tool         string         `json:"tool"`
	Action       string         `json:"action"`
	Params       map[string]any `json:"params"`
	Intent       string         `json:"intent,omitempty"`
	ProofPayload string         `json:"proof_payload,omitempty"`
	Async        bool           `json:"async,omitempty"`
}

// ProxyEnvelope is the synchronous proxy response.
type ProxyEnvelope struct {
	Success  bool            `json:"success"`
	Data     json.RawMessage `json:"data"`
	Metadata map[string]any  `json:"metadata"`
}

type AsyncResponse struct {
	JobID string `json:"job_id"`
}
