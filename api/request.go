package api

// Submission variant selecting which remote action creates the task.
const (
	RunAPIOneStep = "one_step"
	RunAPITask    = "task"
)

// SubmitParams are the parameters for creating one remote agent task.
// Field names follow the remote API's PascalCase JSON convention.
type SubmitParams struct {
	RunName   string `json:"RunName"`
	PodId     string `json:"PodId"`
	ProductId string `json:"ProductId"`

	UserPrompt   string `json:"UserPrompt"`
	SystemPrompt string `json:"SystemPrompt"`

	TosBucket   string `json:"TosBucket,omitempty"`
	TosEndpoint string `json:"TosEndpoint,omitempty"`
	TosRegion   string `json:"TosRegion,omitempty"`

	UseBase64Screenshot bool `json:"UseBase64Screenshot"`
	IsScreenRecord      bool `json:"IsScreenRecord"`

	// Timeout is the remote-side deadline in seconds. It mirrors the
	// local per-case deadline so both sides give up together.
	Timeout int `json:"Timeout"`
}

// PodInfo is the subset of DetailPod output the runner reports per verdict.
type PodInfo struct {
	AospVersion string `json:"aosp_version,omitempty"`
	ImageName   string `json:"image_name,omitempty"`
	ImageId     string `json:"image_id,omitempty"`
}
