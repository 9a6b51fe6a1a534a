package runner

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScanStepTraceFinished(t *testing.T) {
	resp := map[string]any{"Result": map[string]any{
		"Steps": []any{
			map[string]any{"Action": "tap", "Param": map[string]any{"Content": "tap search"}},
			map[string]any{"Action": "finished", "Result": "done"},
		},
	}}
	sig := scanStepTrace(resp)
	require.True(t, sig.done)
	require.Equal(t, "finished", sig.name)
	require.Equal(t, "done", sig.hint)
}

func TestScanStepTraceRequestUserStep(t *testing.T) {
	resp := map[string]any{"Result": map[string]any{
		"List": []any{
			map[string]any{
				"Action": "request_user",
				"Param":  map[string]any{"Content": "please enter the SMS code"},
			},
		},
	}}
	sig := scanStepTrace(resp)
	require.True(t, sig.done)
	require.Equal(t, "request_user", sig.name)
	require.Equal(t, "please enter the SMS code", sig.hint)
}

func TestScanStepTraceMarkerBuriedInPayload(t *testing.T) {
	resp := map[string]any{"Result": map[string]any{
		"Steps": []any{
			map[string]any{"Action": "tap"},
		},
		"Extra": []any{
			map[string]any{"nested": map[string]any{"deep": "awaiting request_user input"}},
		},
	}}
	sig := scanStepTrace(resp)
	require.True(t, sig.done)
	require.Equal(t, "request_user", sig.name)
}

func TestScanStepTraceStillRunning(t *testing.T) {
	resp := map[string]any{"Result": map[string]any{
		"Steps": []any{
			map[string]any{"Action": "swipe"},
			map[string]any{"Action": "tap"},
		},
	}}
	sig := scanStepTrace(resp)
	require.False(t, sig.done)
	require.Equal(t, "tap", sig.name)
}

func TestContainsMarkerMatchesKeys(t *testing.T) {
	require.True(t, containsMarker(map[string]any{"request_user_prompt": 1}, "request_user"))
	require.False(t, containsMarker(map[string]any{"a": []any{"b", 3.0}}, "request_user"))
	require.True(t, containsMarker([]any{[]any{"x request_user y"}}, "request_user"))
}
