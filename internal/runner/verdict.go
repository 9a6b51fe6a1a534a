package runner

import (
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/huanghao-6/vePhone/api"
)

// Remote success codes carried in the final result payload.
const (
	codeNotCompleted  = 0
	codeSuccess       = 1
	codeExecFailed    = 2
	codeNoMessage     = 3
	codeUserInterrupt = 4
	codeUserCancelled = 5
	codeUnknownError  = 6
)

// resolved is everything verdict inference extracts from one final-result
// payload.
type resolved struct {
	status api.Status
	reason string

	screenshots []string
	video       string

	inTokens  *int64
	outTokens *int64

	originalDimensions   []int
	screenshotDimensions []int

	content      string
	structOutput any
}

// resolvePayload maps a raw final-result payload to a canonical status and
// reason, and pulls out the auxiliary evidence. The precedence is: timeout,
// then the success-code table, then a top-level error envelope, then the
// task's structured self-report, then free-text markers.
func resolvePayload(resp map[string]any, timedOut bool) resolved {
	result := resultEnvelope(resp)

	out := resolved{}
	if timedOut {
		out.status = api.StatusFail
		out.reason = "timed out waiting for completion"
	} else {
		out.status, out.reason = statusFromCode(result)

		if msg := errorMessage(resp); msg != "" {
			out.status = api.StatusFail
			out.reason = msg
		}

		applySelfReport(&out, result)
	}

	extractEvidence(&out, resp, result)
	return out
}

// statusFromCode applies the success-code table.
func statusFromCode(result map[string]any) (api.Status, string) {
	if result == nil {
		return api.StatusFail, "success code missing or malformed"
	}
	code, ok := coerceInt(result["Code"])
	if !ok {
		code, ok = coerceInt(result["code"])
	}
	if !ok {
		return api.StatusFail, "success code missing or malformed"
	}

	switch code {
	case codeSuccess, codeNoMessage:
		return api.StatusPass, ""
	case codeNotCompleted:
		return api.StatusFail, "task still not completed at deadline"
	case codeExecFailed:
		return api.StatusFail, "task execution failed"
	case codeUserInterrupt:
		return api.StatusFail, "user interrupted"
	case codeUserCancelled:
		return api.StatusSkip, "user cancelled"
	case codeUnknownError:
		return api.StatusFail, "unknown error"
	default:
		return api.StatusFail, "unrecognized success code " + strconv.FormatInt(code, 10)
	}
}

// applySelfReport lets the task's own structured {status, reason} judgment
// downgrade a code-level pass, or fill in a missing failure reason. The
// free-text fallback applies only when no structured self-report fired.
func applySelfReport(out *resolved, result map[string]any) {
	if result == nil {
		return
	}

	status, reason := inferFromStructOutput(result["StructOutput"])
	if status == "" {
		status, reason = inferFromContent(result["Content"])
	}
	if status == "" {
		return
	}

	if out.status == api.StatusPass && (status == api.StatusFail || status == api.StatusSkip) {
		out.status = status
		if out.reason == "" && reason != "" {
			out.reason = reason
		}
		return
	}
	if out.status != api.StatusPass && out.reason == "" && reason != "" {
		out.reason = reason
	}
}

// inferFromStructOutput reads a machine-readable self-report, either a
// native object or a JSON string (possibly escaped).
func inferFromStructOutput(v any) (api.Status, string) {
	switch so := v.(type) {
	case map[string]any:
		return statusReasonFromObject(so)
	case string:
		if obj := tryParseJSONObject(so); obj != nil {
			return statusReasonFromObject(obj)
		}
	}
	return "", ""
}

var (
	finalStatusRe   = regexp.MustCompile(`(?i)(?:最终状态|final status)\s*[:：]\s*(pass|fail|skip)\b`)
	failureReasonRe = regexp.MustCompile(`(?:失败原因|[Ff]ailure reason)\s*[:：]\s*(.+)`)
)

// inferFromContent falls back to free text: a "final status" marker, a JSON
// object anchored at a {"status" substring (allowing one level of string
// escaping), or a "failure reason" line implying fail.
func inferFromContent(v any) (api.Status, string) {
	text, ok := v.(string)
	if !ok || strings.TrimSpace(text) == "" {
		return "", ""
	}
	text = strings.TrimSpace(text)

	if m := finalStatusRe.FindStringSubmatch(text); m != nil {
		return coerceStatus(m[1]), ""
	}

	if start := strings.LastIndex(text, `{"status"`); start >= 0 {
		if blob := extractJSONObject(text, start); blob != "" {
			if obj := tryParseJSONObject(blob); obj != nil {
				return statusReasonFromObject(obj)
			}
		}
	} else if strings.Contains(text, `{\"status\"`) {
		// One level of string escaping: unescape before brace matching,
		// otherwise the escaped quotes keep the scanner inside a string.
		unescaped := strings.ReplaceAll(text, `\"`, `"`)
		unescaped = strings.ReplaceAll(unescaped, `\\`, `\`)
		if start := strings.LastIndex(unescaped, `{"status"`); start >= 0 {
			if blob := extractJSONObject(unescaped, start); blob != "" {
				if obj := tryParseJSONObject(blob); obj != nil {
					return statusReasonFromObject(obj)
				}
			}
		}
	}

	if m := failureReasonRe.FindStringSubmatch(text); m != nil {
		return api.StatusFail, strings.TrimSpace(m[1])
	}
	return "", ""
}

func statusReasonFromObject(obj map[string]any) (api.Status, string) {
	status := coerceStatus(stringField(obj, "status", "Status"))
	reason := stringField(obj, "reason", "Reason")
	return status, reason
}

func coerceStatus(s string) api.Status {
	status := api.Status(strings.ToLower(strings.TrimSpace(s)))
	if status.Valid() {
		return status
	}
	return ""
}

// tryParseJSONObject parses text as a JSON object, retrying once with
// common escape sequences unescaped ({\"status\":\"fail\"} style).
func tryParseJSONObject(text string) map[string]any {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err == nil {
		return obj
	}

	if strings.Contains(s, `\"`) || strings.Contains(s, `\n`) {
		s2 := strings.ReplaceAll(s, `\"`, `"`)
		s2 = strings.ReplaceAll(s2, `\\`, `\`)
		obj = nil
		if err := json.Unmarshal([]byte(s2), &obj); err == nil {
			return obj
		}
	}
	return nil
}

// extractJSONObject returns the balanced {...} slice starting at start,
// aware of strings and escapes, or "" when the braces never balance.
func extractJSONObject(text string, start int) string {
	if start < 0 || start >= len(text) || text[start] != '{' {
		return ""
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		ch := text[i]

		if inString {
			if escaped {
				escaped = false
				continue
			}
			switch ch {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// extractEvidence pulls screenshots, dimensions, token usage, recording URL
// and raw content out of the payload. None of this affects the status.
func extractEvidence(out *resolved, resp, result map[string]any) {
	if result == nil {
		return
	}

	out.content, _ = result["Content"].(string)
	if so := result["StructOutput"]; !emptyStructOutput(so) {
		out.structOutput = so
	}

	if usage, ok := result["Usage"].(map[string]any); ok {
		if n, ok := coerceInt(usage["in_tokens"]); ok {
			out.inTokens = &n
		}
		if n, ok := coerceInt(usage["out_tokens"]); ok {
			out.outTokens = &n
		}
	}

	extractScreenshots(out, result)

	// Recording URL wins over the first screenshot for the video slot.
	recording := stringField(resp, "RecordingUrl")
	if recording == "" {
		recording = stringField(result, "RecordingUrl")
	}
	switch {
	case recording != "":
		out.video = normalizeURL(recording)
	case len(out.screenshots) > 0:
		out.video = out.screenshots[0]
	}
}

// extractScreenshots walks the keyed ScreenShots mapping in step order,
// deduplicating URLs while preserving first-seen order. Dimensions come
// from the first entry only.
func extractScreenshots(out *resolved, result map[string]any) {
	shots, ok := result["ScreenShots"].(map[string]any)
	if !ok || len(shots) == 0 {
		return
	}

	seen := make(map[string]struct{})
	first := true
	for _, key := range orderedKeys(shots) {
		entry, ok := shots[key].(map[string]any)
		if !ok {
			continue
		}

		if first {
			out.originalDimensions = coerceDims(entry["original_dimensions"])
			out.screenshotDimensions = coerceDims(entry["screenshot_dimensions"])
			first = false
		}

		url := stringField(entry, "screenshot", "original_screenshot")
		if url == "" {
			continue
		}
		if _, dup := seen[url]; dup {
			continue
		}
		seen[url] = struct{}{}
		out.screenshots = append(out.screenshots, url)
	}
}

// orderedKeys restores the entry order of a screenshot mapping. The remote
// side keys entries by step ordinal, so numeric keys sort numerically;
// anything else falls back to lexicographic order.
func orderedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	allNumeric := true
	for k := range m {
		keys = append(keys, k)
		if _, err := strconv.Atoi(k); err != nil {
			allNumeric = false
		}
	}
	if allNumeric {
		sort.Slice(keys, func(i, j int) bool {
			a, _ := strconv.Atoi(keys[i])
			b, _ := strconv.Atoi(keys[j])
			return a < b
		})
	} else {
		sort.Strings(keys)
	}
	return keys
}

func emptyStructOutput(v any) bool {
	switch so := v.(type) {
	case nil:
		return true
	case map[string]any:
		return len(so) == 0
	case []any:
		return len(so) == 0
	case string:
		return strings.TrimSpace(so) == ""
	default:
		return false
	}
}

func normalizeURL(raw string) string {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return "https://" + strings.TrimLeft(raw, "/")
}
