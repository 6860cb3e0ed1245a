package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vietddude/runrgateway/pkg/gateway/domain"
	"github.com/vietddude/runrgateway/pkg/gateway/gwerr"
)

// tokenRefreshMargin is how long before expiry an auto-acquired token is
// considered stale.
const tokenRefreshMargin = time.Minute

// autoTokenFetchTimeout bounds a shared token acquisition, retries included.
const autoTokenFetchTimeout = time.Minute

var errNoIssuedAt = errors.New("token has no iat claim")

// GetToken requests a new capability token.
func (c *Client) GetToken(ctx context.Context, opts TokenOptions) (string, error) {
	body := domain.TokenRequest{
		AgentID:     c.cfg.AgentID,
		Tools:       opts.Tools,
		Permissions: opts.Permissions,
		ExpiresAt:   c.now().Add(time.Duration(opts.TTLMinutes) * time.Minute).UTC().Format(time.RFC3339),
	}

	resp, _, err := c.send(ctx, http.MethodPost, "/api/generate-token", "generate-token", body, nil)
	if err != nil {
		return "", err
	}

	var tr domain.TokenResponse
	if err := decode(resp, &tr); err != nil {
		return "", err
	}
	if tr.AgentToken == "" {
		return "", gwerr.New(gwerr.KindGeneric, resp.StatusCode, "response has no agent_token")
	}
	return tr.AgentToken, nil
}

// TokenIssuedAt decodes the iat claim from a JWT-shaped token.
func TokenIssuedAt(token string) (time.Time, error) {
	parts := strings.Split(token, ".")
	if len(parts) < 2 {
		return time.Time{}, fmt.Errorf("token has %d segments, want at least 2", len(parts))
	}

	segment := strings.TrimRight(parts[1], "=")
	raw, err := base64.RawURLEncoding.DecodeString(segment)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(segment)
		if err != nil {
			return time.Time{}, fmt.Errorf("decode token payload: %w", err)
		}
	}

	var claims struct {
		IssuedAt *float64 `json:"iat"`
	}
	if err := json.Unmarshal(raw, &claims); err != nil {
		return time.Time{}, fmt.Errorf("parse token claims: %w", err)
	}
	if claims.IssuedAt == nil {
		return time.Time{}, errNoIssuedAt
	}

	sec := int64(*claims.IssuedAt)
	nsec := int64((*claims.IssuedAt - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec), nil
}

// checkTokenAge fails with a Token error when the token is older than the
// configured limit. Undecodable tokens count as age zero unless StrictTokenAge.
func (c *Client) checkTokenAge(token string) error {
	issuedAt, err := TokenIssuedAt(token)
	if err != nil {
		if c.cfg.StrictTokenAge {
			return gwerr.Token("cannot determine token age: %v", err)
		}
		c.logger.Debug("Token age unknown, treating as fresh", "error", err)
		return nil
	}

	if age := c.now().Sub(issuedAt); age > c.cfg.MaxTokenAge {
		return gwerr.Token("token is too old (issued %s ago, limit %s)", age.Round(time.Second), c.cfg.MaxTokenAge)
	}
	return nil
}

type cachedToken struct {
	token     string
	expiresAt time.Time
}

// tokenCache holds tokens the client acquired on its own, one per tool.
type tokenCache struct {
	mu     sync.Mutex
	tokens map[string]cachedToken
	group  singleflight.Group
}

func newTokenCache() *tokenCache {
	return &tokenCache{tokens: make(map[string]cachedToken)}
}

func (tc *tokenCache) get(tool string, now time.Time) (string, bool) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	entry, ok := tc.tokens[tool]
	if !ok || !now.Before(entry.expiresAt.Add(-tokenRefreshMargin)) {
		return "", false
	}
	return entry.token, true
}

func (tc *tokenCache) put(tool, token string, expiresAt time.Time) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.tokens[tool] = cachedToken{token: token, expiresAt: expiresAt}
}

// evict drops the cached token for tool if it is still the given token.
func (tc *tokenCache) evict(tool, token string) bool {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if entry, ok := tc.tokens[tool]; ok && entry.token == token {
		delete(tc.tokens, tool)
		return true
	}
	return false
}

// autoToken returns a cached token for tool or acquires one scoped to it.
// Concurrent callers for the same tool share a single acquisition, which
// runs detached from any one caller's cancellation; each caller still
// stops waiting when its own ctx ends.
func (c *Client) autoToken(ctx context.Context, tool string) (string, error) {
	if token, ok := c.tokens.get(tool, c.now()); ok {
		return token, nil
	}

	ch := c.tokens.group.DoChan(tool, func() (any, error) {
		if token, ok := c.tokens.get(tool, c.now()); ok {
			return token, nil
		}

		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), autoTokenFetchTimeout)
		defer cancel()

		issued := c.now()
		token, err := c.GetToken(fetchCtx, TokenOptions{
			Tools:       []string{tool},
			Permissions: []string{"read", "write"},
			TTLMinutes:  autoTokenTTLMinutes,
		})
		if err != nil {
			return "", err
		}
		c.tokens.put(tool, token, issued.Add(autoTokenTTLMinutes*time.Minute))
		return token, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}
