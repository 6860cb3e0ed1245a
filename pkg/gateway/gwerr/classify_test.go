package gwerr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"
)

func TestFromResponse(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		message    string
		retryAfter string
		expect     Kind
	}{
		{"unauthorized", 401, "invalid token", "", KindAuth},
		{"forbidden", 403, "denied", "", KindAuth},
		{"rate limited", 429, "slow down", "30", KindRateLimit},
		{"scope exceeded", 400, "scope exceeded", "", KindPolicy},
		{"policy uppercase", 400, "POLICY violation", "", KindPolicy},
		{"bad request", 400, "bad request", "", KindGeneric},
		{"bad gateway", 502, "upstream down", "", KindUpstream},
		{"unavailable", 503, "maintenance", "", KindUpstream},
		{"gateway timeout", 504, "timeout", "", KindUpstream},
		{"internal", 500, "boom", "", KindGeneric},
		{"not found", 404, "no such job", "", KindGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromResponse(tt.status, tt.message, tt.retryAfter)
			if err.Kind != tt.expect {
				t.Errorf("FromResponse(%d, %q) kind = %v, want %v", tt.status, tt.message, err.Kind, tt.expect)
			}
			if err.StatusCode != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, err.StatusCode)
			}
			if err.Message != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, err.Message)
			}
		})
	}
}

func TestFromResponse_RetryAfter(t *testing.T) {
	err := FromResponse(429, "too many", "30")
	if !err.HasRetryAfter || err.RetryAfter != 30*time.Second {
		t.Errorf("expected retry after 30s, got %v (set=%v)", err.RetryAfter, err.HasRetryAfter)
	}

	for _, header := range []string{"", "soon", "Wed, 21 Oct 2015 07:28:00 GMT", "-5"} {
		err := FromResponse(429, "too many", header)
		if err.HasRetryAfter {
			t.Errorf("Retry-After %q should leave retry after unset, got %v", header, err.RetryAfter)
		}
	}
}

func TestFromResponse_EmptyMessage(t *testing.T) {
	err := FromResponse(500, "", "")
	if err.Message != "HTTP 500" {
		t.Errorf("expected fallback message, got %q", err.Message)
	}
}

func TestFromTransport(t *testing.T) {
	dialErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

	err := FromTransport(dialErr)
	gwErr, ok := As(err)
	if !ok || gwErr.Kind != KindNetwork {
		t.Fatalf("expected network error, got %v", err)
	}
	if !errors.Is(err, dialErr) {
		t.Error("network error should wrap the transport fault")
	}

	if got := FromTransport(context.DeadlineExceeded); KindOf(got) != KindNetwork {
		t.Errorf("deadline exceeded should classify as network, got %v", got)
	}
	if got := FromTransport(context.Canceled); !errors.Is(got, context.Canceled) || KindOf(got) == KindNetwork {
		t.Errorf("cancellation should pass through, got %v", got)
	}

	auth := FromResponse(401, "nope", "")
	if got := FromTransport(fmt.Errorf("wrapped: %w", auth)); got != auth {
		t.Errorf("gateway errors should pass through, got %v", got)
	}
}

func TestErrorIs(t *testing.T) {
	err := fmt.Errorf("call failed: %w", FromResponse(400, "scope exceeded", ""))
	if !errors.Is(err, ErrPolicy) {
		t.Error("expected errors.Is to match ErrPolicy")
	}
	if errors.Is(err, ErrAuth) {
		t.Error("policy error should not match ErrAuth")
	}
	if KindOf(errors.New("plain")) != KindGeneric {
		t.Error("plain errors should report KindGeneric")
	}
}
