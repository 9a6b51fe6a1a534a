package runner

import (
	"context"
	"log/slog"
	"sync"

	"github.com/huanghao-6/vePhone/api"
	"github.com/huanghao-6/vePhone/internal/cases"
	"github.com/huanghao-6/vePhone/internal/podapi"
	"golang.org/x/sync/errgroup"
)

// ClientFactory builds one TaskClient per worker, bound to a pod.
type ClientFactory func(podID string) podapi.TaskClient

// OnResult is invoked synchronously as each verdict is produced, in
// execution order. Implementations must be safe for concurrent use when
// running in parallel mode.
type OnResult func(v api.Verdict)

// Runner owns one suite invocation: the shared registries, the shutdown
// flag and the scheduling across pods. Construct one per run; nothing here
// is a process-global.
type Runner struct {
	cfg       Config
	newClient ClientFactory

	podInfo   *podapi.PodInfoCache
	active    *ActiveRuns
	canceller *CancelCoordinator
	shutdown  *ShutdownFlag
	progress  *Progress

	// sweepClient issues cancels on behalf of the signal handler and the
	// exit cleanup, where no worker client is in scope.
	sweepClient podapi.TaskClient

	onResult OnResult
	emitMu   sync.Mutex
}

// New creates a Runner. onResult may be nil.
func New(cfg Config, newClient ClientFactory, onResult OnResult) *Runner {
	sweepClient := newClient("")
	return &Runner{
		cfg:         cfg,
		newClient:   newClient,
		podInfo:     podapi.NewPodInfoCache(sweepClient, cfg.ProductId),
		active:      NewActiveRuns(),
		canceller:   NewCancelCoordinator(),
		shutdown:    &ShutdownFlag{},
		progress:    &Progress{},
		sweepClient: sweepClient,
		onResult:    onResult,
	}
}

// Shutdown exposes the cooperative stop flag, e.g. for tests and for
// embedding callers that manage signals themselves.
func (r *Runner) Shutdown() *ShutdownFlag { return r.shutdown }

// Progress exposes the running pass/fail/skip counts.
func (r *Runner) Progress() *Progress { return r.progress }

// RunSuite executes all cases across the given pods and returns one verdict
// per case, ordered by discovery index. Every still-active remote run is
// cancelled before returning, whatever the exit path.
func (r *Runner) RunSuite(ctx context.Context, cs []cases.CaseFile, podIDs []string) []api.Verdict {
	r.progress = NewProgress(len(cs))

	defer r.canceller.Sweep(context.Background(), r.sweepClient, r.active)

	results := make([]*api.Verdict, len(cs))

	mode := r.cfg.ExecMode
	if mode == ExecAuto || mode == "" {
		if len(podIDs) > 1 {
			mode = ExecParallel
		} else {
			mode = ExecSerial
		}
	}
	if mode == ExecParallel && len(podIDs) <= 1 {
		slog.Warn("parallel mode requested with at most one pod, falling back to serial", "pods", len(podIDs))
		mode = ExecSerial
	}

	switch mode {
	case ExecParallel:
		r.runParallel(ctx, cs, podIDs, results)
	default:
		pod := ""
		if len(podIDs) > 0 {
			pod = podIDs[0]
		}
		slog.Info("executing serially", "pod", pod, "cases", len(cs))
		r.runSerial(ctx, cs, pod, results)
	}

	// Whatever never produced a verdict (shutdown mid-run) is synthesized
	// as a skip so every discovered index appears exactly once.
	out := make([]api.Verdict, len(cs))
	for i, c := range cs {
		if results[i] != nil {
			out[i] = *results[i]
			continue
		}
		v := api.Verdict{
			Case:   c.Path,
			Status: api.StatusSkip,
			Reason: "local interruption, not executed",
		}
		r.emit(c.Index, v, results, r.progress)
		out[i] = v
	}
	return out
}

func (r *Runner) runSerial(ctx context.Context, cs []cases.CaseFile, pod string, results []*api.Verdict) {
	client := r.newClient(pod)
	for _, c := range cs {
		if r.shutdown.IsSet() {
			return
		}
		slog.Info("running case", "pod", pod, "case", c.Path)
		v := r.runCase(ctx, client, pod, c)
		r.emit(c.Index, v, results, r.progress)
	}
}

// runParallel pulls cases off a shared queue with one worker per pod.
// Nothing is pre-partitioned: faster pods naturally take more cases.
func (r *Runner) runParallel(ctx context.Context, cs []cases.CaseFile, podIDs []string, results []*api.Verdict) {
	slog.Info("executing in parallel", "pods", len(podIDs), "cases", len(cs))

	queue := make(chan cases.CaseFile, len(cs))
	for _, c := range cs {
		queue <- c
	}
	close(queue)

	g := new(errgroup.Group)
	for _, pod := range podIDs {
		pod := pod
		g.Go(func() error {
			client := r.newClient(pod)
			for c := range queue {
				if r.shutdown.IsSet() {
					return nil
				}
				slog.Info("running case", "pod", pod, "case", c.Path)
				v := r.runCase(ctx, client, pod, c)
				r.emit(c.Index, v, results, r.progress)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (r *Runner) emit(index int, v api.Verdict, results []*api.Verdict, progress *Progress) {
	r.emitMu.Lock()
	if index >= 0 && index < len(results) {
		verdict := v
		results[index] = &verdict
	}
	r.emitMu.Unlock()

	if progress != nil {
		done := progress.Observe(v.Status)
		slog.Info("case finished",
			"case", v.Case,
			"status", string(v.Status),
			"reason", v.Reason,
			"done", done,
			"total", progress.Total())
	}

	if r.onResult != nil {
		r.onResult(v)
	}
}
