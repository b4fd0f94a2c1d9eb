package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// SQSAPI is the subset of the SQS client the queue needs; tests substitute a fake.
type SQSAPI interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// NewSQSClient loads the default AWS config for region. A non-empty endpoint points the
// client at a local emulator.
func NewSQSClient(ctx context.Context, region, endpoint string) (*sqs.Client, error) {
	if region == "" {
		region = "us-east-1"
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return sqs.NewFromConfig(cfg, func(o *sqs.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// sqsMaxDelay is the largest DelaySeconds SQS accepts.
const sqsMaxDelay = 15 * time.Minute

// SQSQueue long-polls an SQS queue. Unacked messages reappear after the visibility timeout.
type SQSQueue struct {
	SQS      SQSAPI
	QueueURL string
	Wait     int32 // long-poll seconds
	Visible  int32 // visibility timeout seconds

	mu  sync.Mutex
	buf []Job
}

func NewSQSQueue(client SQSAPI, queueURL string) *SQSQueue {
	return &SQSQueue{SQS: client, QueueURL: queueURL, Wait: 20, Visible: 60}
}

func (q *SQSQueue) Enqueue(ctx context.Context, j Job, delay time.Duration) error {
	b, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	if delay > sqsMaxDelay {
		delay = sqsMaxDelay
	}
	_, err = q.SQS.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:     aws.String(q.QueueURL),
		MessageBody:  aws.String(string(b)),
		DelaySeconds: int32(delay / time.Second),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"kind": {DataType: aws.String("String"), StringValue: aws.String(j.Kind)},
		},
	})
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (q *SQSQueue) Dequeue(ctx context.Context) (Job, error) {
	for {
		q.mu.Lock()
		if len(q.buf) > 0 {
			j := q.buf[0]
			q.buf = q.buf[1:]
			q.mu.Unlock()
			return j, nil
		}
		q.mu.Unlock()

		if err := ctx.Err(); err != nil {
			return Job{}, err
		}
		out, err := q.SQS.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(q.QueueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     q.Wait,
			VisibilityTimeout:   q.Visible,
		})
		if err != nil {
			if ctx.Err() != nil {
				return Job{}, ctx.Err()
			}
			return Job{}, fmt.Errorf("receive message: %w", err)
		}

		var got []Job
		for _, m := range out.Messages {
			var j Job
			if err := json.Unmarshal([]byte(aws.ToString(m.Body)), &j); err != nil {
				// poison message: drop it so it does not come back forever
				_, _ = q.SQS.DeleteMessage(ctx, &sqs.DeleteMessageInput{QueueUrl: aws.String(q.QueueURL), ReceiptHandle: m.ReceiptHandle})
				continue
			}
			j.receipt = aws.ToString(m.ReceiptHandle)
			got = append(got, j)
		}
		q.mu.Lock()
		q.buf = append(q.buf, got...)
		q.mu.Unlock()
	}
}

func (q *SQSQueue) Ack(ctx context.Context, j Job) error {
	if j.receipt == "" {
		return nil
	}
	_, err := q.SQS.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.QueueURL),
		ReceiptHandle: aws.String(j.receipt),
	})
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}
