package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/huanghao-6/vePhone/api"
	"github.com/huanghao-6/vePhone/internal/podapi"
)

// fakeClient is an in-memory TaskClient for lifecycle and scheduler tests.
type fakeClient struct {
	mu sync.Mutex

	submitRunID string
	submitErr   error
	submitCalls int
	lastParams  api.SubmitParams

	stepResps   []map[string]any
	stepErr     error
	stepCalls   int
	resultResp  map[string]any
	resultErr   error
	resultCalls int

	cancelled   []string
	cancelCalls int

	detailResp map[string]any
	detailErr  error
}

func (f *fakeClient) Submit(ctx context.Context, runAPI string, params api.SubmitParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitCalls++
	f.lastParams = params
	if f.submitErr != nil {
		return "", f.submitErr
	}
	if f.submitRunID == "" {
		return "", nil
	}
	return fmt.Sprintf("%s-%d", f.submitRunID, f.submitCalls), nil
}

func (f *fakeClient) CurrentStep(ctx context.Context, runID string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stepCalls++
	if f.stepErr != nil {
		return nil, f.stepErr
	}
	if len(f.stepResps) == 0 {
		return map[string]any{}, nil
	}
	idx := f.stepCalls - 1
	if idx >= len(f.stepResps) {
		idx = len(f.stepResps) - 1
	}
	return f.stepResps[idx], nil
}

func (f *fakeClient) Result(ctx context.Context, runID string, detail bool) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resultCalls++
	return f.resultResp, f.resultErr
}

func (f *fakeClient) Cancel(ctx context.Context, runID string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelCalls++
	f.cancelled = append(f.cancelled, runID)
	return map[string]any{"Result": "ok"}, nil
}

func (f *fakeClient) DetailPod(ctx context.Context, productID, podID string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	if f.detailResp != nil {
		return f.detailResp, nil
	}
	return map[string]any{"Result": map[string]any{
		"pod_id":       podID,
		"product_id":   productID,
		"aosp_version": "13",
		"image_name":   "img",
		"image_id":     "img-1",
	}}, nil
}

func stepsFinished() map[string]any {
	return map[string]any{"Result": map[string]any{
		"Steps": []any{map[string]any{"Action": "finished"}},
	}}
}

func stepsRunning() map[string]any {
	return map[string]any{"Result": map[string]any{
		"Steps": []any{map[string]any{"Action": "tap"}},
	}}
}

func testConfig() Config {
	return Config{
		ProductId:     "prod-1",
		SystemPrompt:  "you are a UI tester",
		TimeoutS:      30,
		PollIntervalS: 0.5,
		RunAPI:        api.RunAPIOneStep,
		ExecMode:      ExecSerial,
	}
}

func newTestRunner(cfg Config, client *fakeClient) *Runner {
	return New(cfg, func(podID string) podapi.TaskClient { return client }, nil)
}
