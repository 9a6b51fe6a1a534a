package runner

import (
	"fmt"
	"testing"

	"github.com/huanghao-6/vePhone/api"
	"github.com/stretchr/testify/require"
)

func payloadWithCode(code any) map[string]any {
	return map[string]any{"Result": map[string]any{"Code": code}}
}

func TestResolvePayloadCodeTable(t *testing.T) {
	tests := []struct {
		code   any
		status api.Status
		reason string
	}{
		{1, api.StatusPass, ""},
		{3, api.StatusPass, ""},
		{float64(3), api.StatusPass, ""},
		{"1", api.StatusPass, ""},
		{0, api.StatusFail, "task still not completed at deadline"},
		{2, api.StatusFail, "task execution failed"},
		{4, api.StatusFail, "user interrupted"},
		{5, api.StatusSkip, "user cancelled"},
		{6, api.StatusFail, "unknown error"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.code), func(t *testing.T) {
			res := resolvePayload(payloadWithCode(tt.code), false)
			require.Equal(t, tt.status, res.status)
			require.Equal(t, tt.reason, res.reason)
		})
	}
}

func TestResolvePayloadMissingCode(t *testing.T) {
	res := resolvePayload(map[string]any{"Result": map[string]any{}}, false)
	require.Equal(t, api.StatusFail, res.status)
	require.Equal(t, "success code missing or malformed", res.reason)

	res = resolvePayload(nil, false)
	require.Equal(t, api.StatusFail, res.status)

	res = resolvePayload(payloadWithCode("not-a-number"), false)
	require.Equal(t, api.StatusFail, res.status)
}

func TestResolvePayloadTimeout(t *testing.T) {
	res := resolvePayload(payloadWithCode(1), true)
	require.Equal(t, api.StatusFail, res.status)
	require.Equal(t, "timed out waiting for completion", res.reason)
}

func TestResolvePayloadErrorEnvelope(t *testing.T) {
	resp := map[string]any{
		"ResponseMetadata": map[string]any{
			"Error": map[string]any{"Message": "quota exceeded"},
		},
		"Result": map[string]any{"Code": 1},
	}
	res := resolvePayload(resp, false)
	require.Equal(t, api.StatusFail, res.status)
	require.Equal(t, "quota exceeded", res.reason)
}

func TestSelfReportDowngradesPass(t *testing.T) {
	resp := map[string]any{"Result": map[string]any{
		"Code": 1,
		"StructOutput": map[string]any{
			"status": "fail",
			"reason": "button never appeared",
		},
	}}
	res := resolvePayload(resp, false)
	require.Equal(t, api.StatusFail, res.status)
	require.Equal(t, "button never appeared", res.reason)
}

func TestSelfReportEmbeddedInContent(t *testing.T) {
	resp := map[string]any{"Result": map[string]any{
		"Code":    1,
		"Content": `agent summary... {"status":"fail","reason":"X"} trailing`,
	}}
	res := resolvePayload(resp, false)
	require.Equal(t, api.StatusFail, res.status)
	require.Equal(t, "X", res.reason)
}

func TestSelfReportEscapedInContent(t *testing.T) {
	resp := map[string]any{"Result": map[string]any{
		"Code":    1,
		"Content": `log tail {\"status\":\"fail\",\"reason\":\"X\"}`,
	}}
	res := resolvePayload(resp, false)
	require.Equal(t, api.StatusFail, res.status)
	require.Equal(t, "X", res.reason)
}

func TestSelfReportBorrowsReasonForFail(t *testing.T) {
	resp := map[string]any{"Result": map[string]any{
		"Code": 6,
		"StructOutput": map[string]any{
			"status": "fail",
			"reason": "detailed cause",
		},
	}}
	res := resolvePayload(resp, false)
	require.Equal(t, api.StatusFail, res.status)
	// code 6 already has a default reason; it is kept
	require.Equal(t, "unknown error", res.reason)
}

func TestSelfReportSkipWins(t *testing.T) {
	resp := map[string]any{"Result": map[string]any{
		"Code":         1,
		"StructOutput": `{"status":"skip","reason":"precondition unmet"}`,
	}}
	res := resolvePayload(resp, false)
	require.Equal(t, api.StatusSkip, res.status)
	require.Equal(t, "precondition unmet", res.reason)
}

func TestContentFinalStatusMarker(t *testing.T) {
	for _, content := range []string{
		"...\nfinal status: skip\n...",
		"……最终状态：skip……",
	} {
		resp := map[string]any{"Result": map[string]any{
			"Code":    1,
			"Content": content,
		}}
		res := resolvePayload(resp, false)
		require.Equal(t, api.StatusSkip, res.status, content)
	}
}

func TestContentFailureReasonMarker(t *testing.T) {
	resp := map[string]any{"Result": map[string]any{
		"Code":    1,
		"Content": "执行结束\n失败原因：弹窗遮挡",
	}}
	res := resolvePayload(resp, false)
	require.Equal(t, api.StatusFail, res.status)
	require.Equal(t, "弹窗遮挡", res.reason)
}

func TestScreenshotDedupPreservesOrder(t *testing.T) {
	resp := map[string]any{"Result": map[string]any{
		"Code": 1,
		"ScreenShots": map[string]any{
			"0": map[string]any{"screenshot": "a", "original_dimensions": []any{1080.0, 1920.0}},
			"1": map[string]any{"screenshot": "b"},
			"2": map[string]any{"original_screenshot": "a"},
			"10": map[string]any{"screenshot": "c"},
		},
	}}
	res := resolvePayload(resp, false)
	require.Equal(t, []string{"a", "b", "c"}, res.screenshots)
	require.Equal(t, []int{1080, 1920}, res.originalDimensions)
	require.Equal(t, "a", res.video)
}

func TestRecordingURLWinsVideoSlot(t *testing.T) {
	resp := map[string]any{
		"RecordingUrl": "cdn.example.com/rec.mp4",
		"Result": map[string]any{
			"Code": 1,
			"ScreenShots": map[string]any{
				"0": map[string]any{"screenshot": "a"},
			},
		},
	}
	res := resolvePayload(resp, false)
	require.Equal(t, "https://cdn.example.com/rec.mp4", res.video)
	require.Equal(t, []string{"a"}, res.screenshots)
}

func TestTokenUsageToleratesStrings(t *testing.T) {
	resp := map[string]any{"Result": map[string]any{
		"Code": 1,
		"Usage": map[string]any{
			"in_tokens":  "1234",
			"out_tokens": 56.0,
		},
	}}
	res := resolvePayload(resp, false)
	require.NotNil(t, res.inTokens)
	require.EqualValues(t, 1234, *res.inTokens)
	require.NotNil(t, res.outTokens)
	require.EqualValues(t, 56, *res.outTokens)
}

func TestExtractJSONObjectBalancesBraces(t *testing.T) {
	text := `prefix {"status":"fail","detail":{"msg":"a }"}} suffix`
	start := 7
	require.Equal(t, `{"status":"fail","detail":{"msg":"a }"}}`, extractJSONObject(text, start))
	require.Equal(t, "", extractJSONObject(text, 0))
	require.Equal(t, "", extractJSONObject(`{"never closed`, 0))
}
