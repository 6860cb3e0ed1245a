package gwerr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// FromResponse maps a non-success HTTP response to exactly one error kind.
func FromResponse(statusCode int, message, retryAfter string) *Error {
	if message == "" {
		message = fmt.Sprintf("HTTP %d", statusCode)
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return New(KindAuth, statusCode, message)

	case http.StatusTooManyRequests:
		e := New(KindRateLimit, statusCode, message)
		if secs, err := strconv.Atoi(strings.TrimSpace(retryAfter)); err == nil && secs >= 0 {
			e.RetryAfter = time.Duration(secs) * time.Second
			e.HasRetryAfter = true
		}
		return e

	case http.StatusBadRequest:
		lower := strings.ToLower(message)
		if strings.Contains(lower, "policy") || strings.Contains(lower, "scope") {
			return New(KindPolicy, statusCode, message)
		}
		return New(KindGeneric, statusCode, message)

	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return New(KindUpstream, statusCode, message)
	}

	return New(KindGeneric, statusCode, message)
}

// FromTransport classifies a failure that happened before any response was
// received. Gateway errors pass through untouched; context cancellation by the
// caller is returned as is so it is never mistaken for a transient fault.
func FromTransport(err error) error {
	if err == nil {
		return nil
	}
	if gwErr, ok := As(err); ok {
		return gwErr
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return Network(err)
}
