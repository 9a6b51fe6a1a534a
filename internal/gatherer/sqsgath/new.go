package sqsgath

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// New creates an SQS gatherer that sends suite messages to queueUrl.
// Region and credentials come from the default AWS config chain.
func New(ctx context.Context, suiteUuid string, queueUrl string) (*sqsGatherer, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}

	return &sqsGatherer{
		sqsClient: sqs.NewFromConfig(cfg),
		queueUrl:  queueUrl,
		suiteUuid: suiteUuid,
	}, nil
}
