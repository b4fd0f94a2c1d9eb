package jobs

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSQS keeps messages in memory and records deletes.
type fakeSQS struct {
	mu      sync.Mutex
	msgs    []sqstypes.Message
	sent    []*sqs.SendMessageInput
	deleted []string
	seq     int
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	f.sent = append(f.sent, in)
	f.msgs = append(f.msgs, sqstypes.Message{Body: in.MessageBody, ReceiptHandle: aws.String(fmt.Sprintf("rh-%d", f.seq))})
	return &sqs.SendMessageOutput{MessageId: aws.String(fmt.Sprint(f.seq))}, nil
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.mu.Lock()
	n := int(in.MaxNumberOfMessages)
	if n > len(f.msgs) {
		n = len(f.msgs)
	}
	out := f.msgs[:n]
	f.msgs = f.msgs[n:]
	f.mu.Unlock()
	if len(out) == 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}
	return &sqs.ReceiveMessageOutput{Messages: out}, nil
}

func (f *fakeSQS) DeleteMessage(_ context.Context, in *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, aws.ToString(in.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func TestSQSQueueRoundTrip(t *testing.T) {
	fake := &fakeSQS{}
	q := NewSQSQueue(fake, "https://sqs.local/000000000000/jobs")
	ctx := context.Background()

	j, err := NewJob(KindWelcomeCoupon, map[string]string{"user_id": "u-1"})
	require.NoError(t, err)
	require.NoError(t, q.Enqueue(ctx, j, 20*time.Minute))
	require.Len(t, fake.sent, 1)
	assert.EqualValues(t, 900, fake.sent[0].DelaySeconds, "delay is capped at the SQS maximum")
	assert.Equal(t, KindWelcomeCoupon, aws.ToString(fake.sent[0].MessageAttributes["kind"].StringValue))

	got, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, j.ID, got.ID)
	var p struct {
		UserID string `json:"user_id"`
	}
	require.NoError(t, got.Decode(&p))
	assert.Equal(t, "u-1", p.UserID)

	require.NoError(t, q.Ack(ctx, got))
	assert.Equal(t, []string{"rh-1"}, fake.deleted)
}

func TestSQSQueueDropsPoisonMessages(t *testing.T) {
	fake := &fakeSQS{msgs: []sqstypes.Message{{Body: aws.String("not json"), ReceiptHandle: aws.String("bad")}}}
	q := NewSQSQueue(fake, "q")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := q.Dequeue(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []string{"bad"}, fake.deleted)
}

func TestRunnerOverSQSRetriesAndAcks(t *testing.T) {
	captureLogs(t)
	fake := &fakeSQS{}
	q := NewSQSQueue(fake, "q")
	r := NewRunner(q, Options{Workers: 1, MaxAttempts: 3, BackoffBase: time.Millisecond, BackoffMax: time.Millisecond})

	done := make(chan Job, 1)
	first := true
	r.Handle("once-flaky", func(ctx context.Context, j Job) error {
		if first {
			first = false
			return fmt.Errorf("transient")
		}
		done <- j
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	j, _ := NewJob("once-flaky", nil)
	require.NoError(t, q.Enqueue(ctx, j, 0))

	select {
	case got := <-done:
		assert.Equal(t, 1, got.Attempt)
	case <-time.After(2 * time.Second):
		t.Fatal("retry never delivered")
	}
	require.Eventually(t, func() bool {
		fake.mu.Lock()
		defer fake.mu.Unlock()
		return len(fake.deleted) == 2
	}, time.Second, 5*time.Millisecond)
}
