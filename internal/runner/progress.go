package runner

import (
	"sync/atomic"

	"github.com/huanghao-6/vePhone/api"
)

// Progress keeps running pass/fail/skip counts for log output.
type Progress struct {
	total int
	pass  atomic.Int64
	fail  atomic.Int64
	skip  atomic.Int64
}

func NewProgress(total int) *Progress {
	return &Progress{total: total}
}

// Observe records one verdict and returns how many cases are done.
func (p *Progress) Observe(status api.Status) int {
	switch status {
	case api.StatusPass:
		p.pass.Add(1)
	case api.StatusSkip:
		p.skip.Add(1)
	default:
		p.fail.Add(1)
	}
	return p.Done()
}

func (p *Progress) Done() int {
	return int(p.pass.Load() + p.fail.Load() + p.skip.Load())
}

func (p *Progress) Total() int { return p.total }

// Counts returns the pass, fail and skip totals observed so far.
func (p *Progress) Counts() (pass, fail, skip int) {
	return int(p.pass.Load()), int(p.fail.Load()), int(p.skip.Load())
}
