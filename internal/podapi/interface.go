// Package podapi talks to the cloud-phone agent-task HTTP API.
package podapi

import (
	"context"

	"github.com/huanghao-6/vePhone/api"
)

// TaskClient is the remote task API surface the runner depends on.
// Response payloads are loose maps owned by the remote side; callers must
// tolerate missing or re-shaped fields.
type TaskClient interface {
	// Submit creates a remote agent task and returns its run id. An empty
	// run id with a nil error means the remote side accepted the call but
	// did not create a task.
	Submit(ctx context.Context, runAPI string, params api.SubmitParams) (string, error)

	// CurrentStep fetches the step trace for a run.
	CurrentStep(ctx context.Context, runID string) (map[string]any, error)

	// Result fetches the final result payload for a run.
	Result(ctx context.Context, runID string, detail bool) (map[string]any, error)

	// Cancel requests best-effort cancellation of a run.
	Cancel(ctx context.Context, runID string) (map[string]any, error)

	// DetailPod fetches metadata about a pod.
	DetailPod(ctx context.Context, productID, podID string) (map[string]any, error)
}
