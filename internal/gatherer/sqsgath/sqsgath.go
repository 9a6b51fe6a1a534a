// Package sqsgath streams suite progress to an SQS queue.
package sqsgath

import (
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/huanghao-6/vePhone/api"
)

type sqsGatherer struct {
	sqsClient *sqs.Client
	queueUrl  string
	suiteUuid string
}

func (s *sqsGatherer) SuiteStart(totalCases int, casesDir string) {
	s.send(api.NewSuiteStart(s.suiteUuid, totalCases, casesDir))
}

func (s *sqsGatherer) CaseVerdict(index int, v *api.Verdict) {
	s.send(api.NewCaseVerdict(s.suiteUuid, index, v))
}

func (s *sqsGatherer) SuiteFinish(passed, failed, skipped int, durationMs int64) {
	s.send(api.NewSuiteFinish(s.suiteUuid, passed, failed, skipped, durationMs))
}

func (s *sqsGatherer) Close() error { return nil }
