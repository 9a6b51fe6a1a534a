package runner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/huanghao-6/vePhone/api"
	"github.com/huanghao-6/vePhone/internal/cases"
	"github.com/huanghao-6/vePhone/internal/podapi"
)

// How many step polls without a completion signal pass between proactive
// result probes. The probe is a safety net against a step-trace endpoint
// that never reports completion.
const probeEvery = 5

// runCase drives one case through submit, poll and resolve, producing
// exactly one verdict. It never lets an error or panic escape: unexpected
// failures become a fail verdict with a best-effort cancel, and the run id
// leaves the active registry on every exit path.
func (r *Runner) runCase(ctx context.Context, client podapi.TaskClient, podID string, c cases.CaseFile) (v api.Verdict) {
	startedAt := time.Now()
	runID := ""

	defer func() {
		if p := recover(); p != nil {
			slog.Error("case execution panicked", "case", c.Path, "panic", p)
			if runID != "" {
				_, _ = r.canceller.CancelOnce(context.Background(), client, runID)
			}
			v = r.baseVerdict(ctx, c, podID, startedAt)
			v.RunId = runID
			v.Status = api.StatusFail
			v.Reason = fmt.Sprintf("unexpected local error: %v", p)
		}
	}()

	if r.shutdown.IsSet() {
		v = r.baseVerdict(ctx, c, podID, startedAt)
		v.Status = api.StatusSkip
		v.Reason = "local interruption, not executed"
		return v
	}

	prompt := strings.TrimSpace(c.Content)
	if prompt == "" {
		v = r.baseVerdict(ctx, c, podID, startedAt)
		v.Status = api.StatusSkip
		v.Reason = "case content is empty"
		return v
	}

	params := api.SubmitParams{
		RunName:             c.Name(),
		PodId:               podID,
		ProductId:           r.cfg.ProductId,
		UserPrompt:          prompt,
		SystemPrompt:        r.cfg.SystemPrompt,
		TosBucket:           r.cfg.TosBucket,
		TosEndpoint:         r.cfg.TosEndpoint,
		TosRegion:           r.cfg.TosRegion,
		UseBase64Screenshot: r.cfg.UseBase64Screenshot,
		IsScreenRecord:      r.cfg.ScreenRecord,
		Timeout:             r.cfg.TimeoutS,
	}

	var err error
	runID, err = client.Submit(ctx, r.cfg.RunAPI, params)
	if err != nil {
		v = r.baseVerdict(ctx, c, podID, startedAt)
		v.Status = api.StatusFail
		v.Reason = fmt.Sprintf("submission failed: %v", err)
		return v
	}
	if runID == "" {
		v = r.baseVerdict(ctx, c, podID, startedAt)
		v.Status = api.StatusFail
		v.Reason = "no run id returned"
		return v
	}

	r.active.Add(runID)
	defer r.active.Remove(runID)

	return r.pollUntilDone(ctx, client, podID, c, runID, startedAt)
}

// pollUntilDone is the POLLING state: a floor-bounded sleep loop watching
// the step trace, with a periodic result probe, a wall-clock deadline and
// the shutdown flag as a cooperative cancellation point.
func (r *Runner) pollUntilDone(ctx context.Context, client podapi.TaskClient, podID string, c cases.CaseFile, runID string, startedAt time.Time) api.Verdict {
	deadline := startedAt.Add(r.cfg.timeout())
	interval := r.cfg.pollInterval()

	lastSignal := ""
	missedPolls := 0
	var lastResp map[string]any

	for {
		if r.shutdown.IsSet() {
			_, _ = r.canceller.CancelOnce(context.Background(), client, runID)
			v := r.baseVerdict(ctx, c, podID, startedAt)
			v.RunId = runID
			v.Status = api.StatusSkip
			v.Reason = "local interruption, cancellation issued"
			v.TaskStatus = lastSignal
			return v
		}

		stepResp, err := client.CurrentStep(ctx, runID)
		if err != nil {
			// Transient transport failures are tolerated; the loop
			// carries on until the deadline.
			slog.Warn("step poll failed", "run_id", runID, "error", err)
		} else {
			sig := scanStepTrace(stepResp)
			if sig.name != "" {
				lastSignal = sig.name
			}
			if sig.done {
				return r.resolve(ctx, client, podID, c, runID, startedAt, nil, lastSignal, sig.hint)
			}
		}

		missedPolls++
		if missedPolls%probeEvery == 0 {
			probe, err := client.Result(ctx, runID, true)
			if err != nil {
				slog.Warn("result probe failed", "run_id", runID, "error", err)
			} else {
				lastResp = probe
				if probeIsTerminal(probe) {
					return r.resolve(ctx, client, podID, c, runID, startedAt, probe, lastSignal, "")
				}
			}
		}

		if time.Now().After(deadline) {
			_, _ = r.canceller.CancelOnce(context.Background(), client, runID)
			res := resolvePayload(lastResp, true)
			v := r.baseVerdict(ctx, c, podID, startedAt)
			v.RunId = runID
			applyResolved(&v, res)
			// Keep the last status label the remote reported before the
			// deadline; "timeout" only when we never saw one.
			v.TaskStatus = lastSignal
			if v.TaskStatus == "" {
				v.TaskStatus = "timeout"
			}
			return v
		}

		time.Sleep(interval)
	}
}

/// resolve is the RESOLVING state: fetch (or reuse) the final result and
// hand it to verdict inference.
func (r *Runner) resolve(ctx context.Context, client podapi.TaskClient, podID string, c cases.CaseFile, runID string, startedAt time.Time, prefetched map[string]any, lastSignal, hint string) api.Verdict {
	resp := prefetched
	if resp == nil {
		fetched, err := client.Result(ctx, runID, true)
		if err != nil {
			slog.Warn("final result fetch failed", "run_id", runID, "error", err)
		} else {
			resp = fetched
		}
	}

	res := resolvePayload(resp, false)

	v := r.baseVerdict(ctx, c, podID, startedAt)
	v.RunId = runID
	applyResolved(&v, res)
	v.TaskStatus = lastSignal

	if v.Reason == "" && lastSignal == signalRequestUser && hint != "" {
		v.Reason = hint
	}
	return v
}

func applyResolved(v *api.Verdict, res resolved) {
	v.Status = res.status
	v.Reason = res.reason
	v.Screenshots = res.screenshots
	v.Video = res.video
	v.InTokens = res.inTokens
	v.OutTokens = res.outTokens
	v.OriginalDimensions = res.originalDimensions
	v.ScreenshotDimensions = res.screenshotDimensions
	v.Content = res.content
	v.StructOutput = res.structOutput
}

// probeIsTerminal reports whether a probed result payload carries a
// non-zero success code.
func probeIsTerminal(resp map[string]any) bool {
	result := resultEnvelope(resp)
	if result == nil {
		return false
	}
	code, ok := coerceInt(result["Code"])
	if !ok {
		code, ok = coerceInt(result["code"])
	}
	return ok && code != 0
}

// baseVerdict fills the fields every verdict carries, including the
// memoized pod image metadata. The metadata lookup is best effort and
// never influences the status.
func (r *Runner) baseVerdict(ctx context.Context, c cases.CaseFile, podID string, startedAt time.Time) api.Verdict {
	v := api.Verdict{
		Case:       c.Path,
		Timestamp:  time.Now().Format("2006-01-02 15:04:05"),
		DurationMs: time.Since(startedAt).Milliseconds(),
		PodId:      podID,
	}
	if r.podInfo != nil {
		info := r.podInfo.Get(ctx, podID)
		v.AospVersion = info.AospVersion
		v.ImageName = info.ImageName
		v.ImageId = info.ImageId
	}
	return v
}
