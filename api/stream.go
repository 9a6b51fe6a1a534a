package api

import "time"

// MsgType is a message type for streamed suite progress
type MsgType string

// Streaming message type constants
const (
	SuiteStartMsg  MsgType = "suite_start"
	CaseVerdictMsg MsgType = "case_verdict"
	SuiteFinishMsg MsgType = "suite_finish"
)

// Header is the common header for all streamed suite messages
type Header struct {
	SuiteUuid string  `json:"suite_uuid"`
	MsgType   MsgType `json:"msg_type"`
}

// SuiteStart message sent when a suite run begins
type SuiteStart struct {
	Header
	TotalCases  int    `json:"total_cases"`
	CasesDir    string `json:"cases_dir"`
	StartedTime string `json:"started_time"`
}

// CaseVerdict message sent as each case resolves
type CaseVerdict struct {
	Header
	Index   int      `json:"index"`
	Verdict *Verdict `json:"verdict"`
}

// SuiteFinish message sent when the suite run completes
type SuiteFinish struct {
	Header
	Passed     int   `json:"passed"`
	Failed     int   `json:"failed"`
	Skipped    int   `json:"skipped"`
	DurationMs int64 `json:"duration_ms"`
}

// NewHeader creates a header for the given suite run and message type
func NewHeader(suiteUuid string, msgType MsgType) Header {
	return Header{SuiteUuid: suiteUuid, MsgType: msgType}
}

func NewSuiteStart(suiteUuid string, totalCases int, casesDir string) SuiteStart {
	return SuiteStart{
		Header:      NewHeader(suiteUuid, SuiteStartMsg),
		TotalCases:  totalCases,
		CasesDir:    casesDir,
		StartedTime: time.Now().UTC().Format(time.RFC3339),
	}
}

func NewCaseVerdict(suiteUuid string, index int, v *Verdict) CaseVerdict {
	return CaseVerdict{
		Header:  NewHeader(suiteUuid, CaseVerdictMsg),
		Index:   index,
		Verdict: v,
	}
}

func NewSuiteFinish(suiteUuid string, passed, failed, skipped int, durationMs int64) SuiteFinish {
	return SuiteFinish{
		Header:     NewHeader(suiteUuid, SuiteFinishMsg),
		Passed:     passed,
		Failed:     failed,
		Skipped:    skipped,
		DurationMs: durationMs,
	}
}
