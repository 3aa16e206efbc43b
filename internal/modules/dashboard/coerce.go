package dashboard

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ToNumber coerces a loosely-typed JSON value to a float64. The backend has
// shipped several response shapes over time, so values arrive as numbers,
// currency strings ("$1,234.56"), percentage strings ("5.3%"), parenthesized
// negatives ("(12.3)"), or nested {"value": ...}/{"amount": ...} objects.
// Anything unparseable yields the fallback, never an error.
func ToNumber(v interface{}, fallback float64) float64 {
	switch n := v.(type) {
	case nil:
		return fallback
	case float64:
		return finiteOr(n, fallback)
	case float32:
		return finiteOr(float64(n), fallback)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return finiteOr(f, fallback)
		}
		return fallback
	case map[string]interface{}:
		if a, ok := n["amount"]; ok && a != nil {
			return ToNumber(a, fallback)
		}
		if val, ok := n["value"]; ok && val != nil {
			return ToNumber(val, fallback)
		}
		return fallback
	case string:
		return parseNumericString(n, fallback)
	default:
		return fallback
	}
}

// PickNumber returns the first finite number found under the candidate keys,
// tried in order. The key list is the precedence contract for the fallback
// cascade, so keep it flat and auditable.
func PickNumber(m map[string]interface{}, keys []string, fallback float64) float64 {
	for _, k := range keys {
		v, ok := m[k]
		if !ok {
			continue
		}
		n := ToNumber(v, math.NaN())
		if !math.IsNaN(n) {
			return n
		}
	}
	return fallback
}

func parseNumericString(s string, fallback float64) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}

	// Accounting style negatives: "(12.3)" means -12.3
	neg := strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")

	// Strip currency symbols, thousands separators, percent signs and any
	// other non-numeric noise
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)

	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
		return fallback
	}
	if neg {
		return -n
	}
	return n
}

func finiteOr(n, fallback float64) float64 {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return fallback
	}
	return n
}

func pickString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func asMap(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}
