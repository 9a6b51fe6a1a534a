package api

// Status is the case-level outcome.
type Status string

// Case outcome constants
const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
	StatusSkip Status = "skip"
)

// Valid reports whether s is one of pass/fail/skip.
func (s Status) Valid() bool {
	return s == StatusPass || s == StatusFail || s == StatusSkip
}

// Verdict is the outcome of one test case plus the supporting evidence
// extracted from the remote agent's final result payload. Produced exactly
// once per discovered case, immutable afterwards.
type Verdict struct {
	Case   string `json:"case"`
	Status Status `json:"status"`
	Reason string `json:"reason"`

	Timestamp  string `json:"timestamp"`
	DurationMs int64  `json:"duration_ms"`

	// Video is the recording URL if the payload carried one, otherwise
	// the first screenshot URL.
	Video       string   `json:"video"`
	Screenshots []string `json:"screenshot,omitempty"`

	InTokens  *int64 `json:"in_tokens,omitempty"`
	OutTokens *int64 `json:"out_tokens,omitempty"`

	OriginalDimensions   []int `json:"original_dimensions,omitempty"`
	ScreenshotDimensions []int `json:"screenshot_dimensions,omitempty"`

	AospVersion string `json:"aosp_version,omitempty"`
	ImageName   string `json:"image_name,omitempty"`
	ImageId     string `json:"image_id,omitempty"`

	PodId string `json:"pod_id,omitempty"`
	RunId string `json:"run_id,omitempty"`

	// TaskStatus is the last remote signal observed before resolution,
	// e.g. a step action name or "timeout".
	TaskStatus string `json:"task_status,omitempty"`

	Content      string `json:"content,omitempty"`
	StructOutput any    `json:"struct_output,omitempty"`
}
