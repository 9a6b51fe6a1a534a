package runner

import (
	"strconv"
	"strings"
)

// Helpers for digging through the loosely-typed payloads the remote API
// returns. Field names drift between releases, so every accessor tolerates
// missing keys and string-encoded numbers.

// resultEnvelope returns the Result object of a response, or the response
// itself when the payload sits at top level.
func resultEnvelope(resp map[string]any) map[string]any {
	if resp == nil {
		return nil
	}
	if result, ok := resp["Result"].(map[string]any); ok {
		return result
	}
	return nil
}

// errorMessage extracts a top-level error envelope, checking
// ResponseMetadata.Error first and a bare Error key second.
func errorMessage(resp map[string]any) string {
	if resp == nil {
		return ""
	}
	if meta, ok := resp["ResponseMetadata"].(map[string]any); ok {
		if msg := errorToString(meta["Error"]); msg != "" {
			return msg
		}
	}
	return errorToString(resp["Error"])
}

func errorToString(v any) string {
	switch err := v.(type) {
	case nil:
		return ""
	case map[string]any:
		if msg, ok := err["Message"].(string); ok && strings.TrimSpace(msg) != "" {
			return strings.TrimSpace(msg)
		}
		if len(err) == 0 {
			return ""
		}
		return "remote error"
	case string:
		return strings.TrimSpace(err)
	default:
		return ""
	}
}

// coerceInt accepts ints, JSON floats and digit strings.
func coerceInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// coerceDims converts a two-element sequence into [w, h].
func coerceDims(v any) []int {
	seq, ok := v.([]any)
	if !ok || len(seq) != 2 {
		return nil
	}
	a, okA := coerceInt(seq[0])
	b, okB := coerceInt(seq[1])
	if !okA || !okB {
		return nil
	}
	return []int{int(a), int(b)}
}

func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// containsMarker walks a nested mapping/sequence/scalar structure depth
// first and reports whether any key or string value contains the marker.
// Early-exits on first match.
func containsMarker(v any, marker string) bool {
	switch node := v.(type) {
	case map[string]any:
		for k, child := range node {
			if strings.Contains(k, marker) {
				return true
			}
			if containsMarker(child, marker) {
				return true
			}
		}
	case []any:
		for _, child := range node {
			if containsMarker(child, marker) {
				return true
			}
		}
	case string:
		return strings.Contains(node, marker)
	}
	return false
}
