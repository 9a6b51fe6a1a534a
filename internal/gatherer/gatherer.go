// Package gatherer streams suite progress to one or more result sinks:
// the terminal, an incremental JSONL file, a NATS subject or an SQS queue.
package gatherer

import (
	"github.com/huanghao-6/vePhone/api"
)

// Sink receives suite progress events. Implementations must tolerate
// concurrent CaseVerdict calls when the suite runs in parallel mode.
type Sink interface {
	SuiteStart(totalCases int, casesDir string)
	CaseVerdict(index int, v *api.Verdict)
	SuiteFinish(passed, failed, skipped int, durationMs int64)
	Close() error
}

// Multi fans every event out to all sinks in order.
type Multi []Sink

func (m Multi) SuiteStart(totalCases int, casesDir string) {
	for _, s := range m {
		s.SuiteStart(totalCases, casesDir)
	}
}

func (m Multi) CaseVerdict(index int, v *api.Verdict) {
	for _, s := range m {
		s.CaseVerdict(index, v)
	}
}

func (m Multi) SuiteFinish(passed, failed, skipped int, durationMs int64) {
	for _, s := range m {
		s.SuiteFinish(passed, failed, skipped, durationMs)
	}
}

// Close closes every sink and returns the first error encountered.
func (m Multi) Close() error {
	var first error
	for _, s := range m {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
