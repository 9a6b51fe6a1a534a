// Package natsgath streams suite progress to a NATS subject.
package natsgath

import (
	"github.com/nats-io/nats.go"

	"github.com/huanghao-6/vePhone/api"
)

type natsGatherer struct {
	nc        *nats.Conn
	subject   string
	suiteUuid string
}

// New creates a NATS gatherer that publishes suite messages to subject.
func New(nc *nats.Conn, suiteUuid string, subject string) *natsGatherer {
	return &natsGatherer{
		nc:        nc,
		subject:   subject,
		suiteUuid: suiteUuid,
	}
}

func (s *natsGatherer) SuiteStart(totalCases int, casesDir string) {
	s.send(api.NewSuiteStart(s.suiteUuid, totalCases, casesDir))
}

func (s *natsGatherer) CaseVerdict(index int, v *api.Verdict) {
	s.send(api.NewCaseVerdict(s.suiteUuid, index, v))
}

func (s *natsGatherer) SuiteFinish(passed, failed, skipped int, durationMs int64) {
	s.send(api.NewSuiteFinish(s.suiteUuid, passed, failed, skipped, durationMs))
}

func (s *natsGatherer) Close() error {
	return s.nc.Flush()
}
