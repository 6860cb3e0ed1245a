// Package requestid generates the identifiers attached to gateway requests:
// correlation ids for tracing one logical transaction across retries and
// idempotency keys for deduplicating side-effecting calls.
package requestid

import (
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"
)

// CorrelationHeader carries the correlation id on every outbound request.
const CorrelationHeader = "X-Correlation-Id"

const base36 = "abcdefghijklmnopqrstuvwxyz0123456789"

// NewCorrelationID returns req_<epoch-ms>_<9 random base36 chars>.
func NewCorrelationID() string {
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = base36[rand.IntN(len(base36))]
	}
	return fmt.Sprintf("req_%d_%s", time.Now().UnixMilli(), suffix)
}

// CorrelationIDFrom extracts the correlation id echoed in response headers.
func CorrelationIDFrom(h http.Header) string {
	return h.Get(CorrelationHeader)
}
