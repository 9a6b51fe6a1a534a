package runner

import (
	"context"
	"log/slog"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/huanghao-6/vePhone/internal/podapi"
)

// ActiveRuns tracks the run ids currently being polled. It grows on
// submission and shrinks on every terminal exit; on shutdown the
// cancellation coordinator drains whatever is left.
type ActiveRuns struct {
	set mapset.Set[string]
}

func NewActiveRuns() *ActiveRuns {
	return &ActiveRuns{set: mapset.NewSet[string]()}
}

func (a *ActiveRuns) Add(runID string) {
	if runID != "" {
		a.set.Add(runID)
	}
}

func (a *ActiveRuns) Remove(runID string) {
	a.set.Remove(runID)
}

func (a *ActiveRuns) Snapshot() []string {
	return a.set.ToSlice()
}

func (a *ActiveRuns) Len() int {
	return a.set.Cardinality()
}

// CancelCoordinator guarantees at most one remote cancel call per run id.
// Repeated attempts replay the cached outcome instead of re-issuing the
// call. The map lock is never held across the network call.
type CancelCoordinator struct {
	mu      sync.Mutex
	entries map[string]*cancelEntry
}

type cancelEntry struct {
	once sync.Once
	resp map[string]any
	err  error
}

func NewCancelCoordinator() *CancelCoordinator {
	return &CancelCoordinator{entries: make(map[string]*cancelEntry)}
}

// CancelOnce issues a best-effort cancel for runID, at most once per
// process. Later calls for the same id return the cached response.
func (c *CancelCoordinator) CancelOnce(ctx context.Context, client podapi.TaskClient, runID string) (map[string]any, error) {
	c.mu.Lock()
	entry, ok := c.entries[runID]
	if !ok {
		entry = &cancelEntry{}
		c.entries[runID] = entry
	}
	c.mu.Unlock()

	entry.once.Do(func() {
		entry.resp, entry.err = client.Cancel(ctx, runID)
		if entry.err != nil {
			slog.Warn("cancel request failed", "run_id", runID, "error", entry.err)
		} else {
			slog.Info("cancel requested", "run_id", runID)
		}
	})
	return entry.resp, entry.err
}

// Sweep cancels every run the registry still lists. Used on shutdown
// signals and as the final exit cleanup.
func (c *CancelCoordinator) Sweep(ctx context.Context, client podapi.TaskClient, runs *ActiveRuns) {
	ids := runs.Snapshot()
	if len(ids) == 0 {
		return
	}
	slog.Warn("cancelling still-active runs", "count", len(ids))
	for _, id := range ids {
		_, _ = c.CancelOnce(ctx, client, id)
	}
}
