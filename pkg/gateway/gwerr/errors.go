// Package gwerr defines the typed error taxonomy returned by the gateway client.
//
// Every failure surfaced to a caller is a *Error whose Kind tells the caller
// what follow-up makes sense: refresh credentials (Auth, Token), back off for
// RetryAfter (RateLimit), or fix the request (Policy, Generic).
package gwerr

import (
	"errors"
	"fmt"
	"time"
)

// Kind is the discriminant of a gateway error.
type Kind int

const (
	KindGeneric Kind = iota
	KindAuth
	KindPolicy
	KindRateLimit
	KindUpstream
	KindNetwork
	KindToken
)

// String returns the wire-style code for the kind.
func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "AUTH_ERROR"
	case KindPolicy:
		return "POLICY_ERROR"
	case KindRateLimit:
		return "RATE_LIMIT_ERROR"
	case KindUpstream:
		return "UPSTREAM_ERROR"
	case KindNetwork:
		return "NETWORK_ERROR"
	case KindToken:
		return "TOKEN_ERROR"
	default:
		return "GATEWAY_ERROR"
	}
}

// Sentinels for errors.Is matching on kind.
var (
	ErrGeneric   = &Error{Kind: KindGeneric}
	ErrAuth      = &Error{Kind: KindAuth}
	ErrPolicy    = &Error{Kind: KindPolicy}
	ErrRateLimit = &Error{Kind: KindRateLimit}
	ErrUpstream  = &Error{Kind: KindUpstream}
	ErrNetwork   = &Error{Kind: KindNetwork}
	ErrToken     = &Error{Kind: KindToken}
)

// Error is a classified gateway failure.
type Error struct {
	Kind    Kind
	Message string

	// StatusCode is the HTTP status, 0 when no response was received.
	StatusCode int

	// RetryAfter is only meaningful when HasRetryAfter is set (RateLimit).
	RetryAfter    time.Duration
	HasRetryAfter bool

	// Err is the underlying transport fault (Network).
	Err error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New builds an error of the given kind.
func New(kind Kind, statusCode int, message string) *Error {
	return &Error{Kind: kind, StatusCode: statusCode, Message: message}
}

// Token builds a client-side token error.
func Token(format string, args ...any) *Error {
	return &Error{Kind: KindToken, Message: fmt.Sprintf(format, args...)}
}

// Network wraps a transport fault.
func Network(err error) *Error {
	return &Error{
		Kind:    KindNetwork,
		Message: fmt.Sprintf("network error: %v", err),
		Err:     err,
	}
}

// As extracts a *Error from err's chain.
func As(err error) (*Error, bool) {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindGeneric when err is not a gateway error.
func KindOf(err error) Kind {
	if gwErr, ok := As(err); ok {
		return gwErr.Kind
	}
	return KindGeneric
}
