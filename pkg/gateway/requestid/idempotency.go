package requestid

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/google/uuid"
)

// IdempotencyHeader carries the idempotency key on proxy calls.
const IdempotencyHeader = "Idempotency-Key"

// NewIdempotencyKey returns a one-off key: idemp_<epoch-ms>_<uuid>.
func NewIdempotencyKey() string {
	return fmt.Sprintf("idemp_%d_%s", time.Now().UnixMilli(), uuid.NewString())
}

// IdempotencyKeyFor derives a key from the logical request so identical
// requests always map to the same key, across SDKs: the hash input is the
// Python json.dumps(sort_keys=True) form of {tool, action, params}.
func IdempotencyKeyFor(tool, action string, params map[string]any) (string, error) {
	data, err := canonicalJSON(map[string]any{
		"tool":   tool,
		"action": action,
		"params": params,
	})
	if err != nil {
		return "", fmt.Errorf("marshal idempotency payload: %w", err)
	}

	sum := sha256.Sum256(data)
	return "idemp_" + hex.EncodeToString(sum[:])[:16], nil
}

// canonicalJSON encodes v with sorted keys, ", " and ": " separators and
// every non-printable-ASCII character escaped as \uXXXX. Integral numbers
// are written without a fraction.
func canonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, err
	}

	var b strings.Builder
	if err := writeCanonical(&b, tree); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

func writeCanonical(b *strings.Builder, v any) error {
	switch v := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		b.WriteString(strconv.FormatBool(v))
	case string:
		writeASCIIString(b, v)
	case json.Number:
		s, err := canonicalNumber(v)
		if err != nil {
			return err
		}
		b.WriteString(s)
	case []any:
		b.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				b.WriteString(", ")
			}
			if err := writeCanonical(b, item); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		// Byte order of UTF-8 is code point order.
		sort.Strings(keys)

		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			writeASCIIString(b, k)
			b.WriteString(": ")
			if err := writeCanonical(b, v[k]); err != nil {
				return err
			}
		}
		b.WriteByte('}')
	default:
		return fmt.Errorf("unexpected %T in decoded JSON", v)
	}
	return nil
}

func canonicalNumber(n json.Number) (string, error) {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		return s, nil
	}

	f, err := n.Float64()
	if err != nil {
		return "", err
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e16 {
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	}

	// Shortest repr, scientific outside [1e-4, 1e16).
	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, err := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if err != nil {
		return "", err
	}
	if exp < -4 || exp >= 16 {
		return sci, nil
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}

func writeASCIIString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			switch {
			case r >= 0x20 && r <= 0x7e:
				b.WriteRune(r)
			case r > 0xffff:
				r1, r2 := utf16.EncodeRune(r)
				fmt.Fprintf(b, `\u%04x\u%04x`, r1, r2)
			default:
				fmt.Fprintf(b, `\u%04x`, r)
			}
		}
	}
	b.WriteByte('"')
}
