// Package jobs runs background work (welcome coupons, expiry sweeps) through a Queue
// with bounded retries and exponential backoff.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	KindWelcomeCoupon = "coupon.welcome"
	KindExpireSweep   = "coupon.expire_sweep"
	KindSessionPurge  = "session.purge"
)

type Job struct {
	ID      string          `json:"id"`
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
	// Attempt counts completed (failed) attempts.
	Attempt int       `json:"attempt"`
	Created time.Time `json:"created"`

	receipt string // backend delivery handle, e.g. an SQS receipt
}

// NewJob builds a job of kind with payload encoded as JSON.
func NewJob(kind string, payload any) (Job, error) {
	j := Job{ID: uuid.NewString(), Kind: kind, Created: time.Now().UTC()}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return Job{}, fmt.Errorf("encode %s payload: %w", kind, err)
		}
		j.Payload = b
	}
	return j, nil
}

// Decode unmarshals the payload into v.
func (j Job) Decode(v any) error {
	if err := json.Unmarshal(j.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", j.Kind, err)
	}
	return nil
}

// Queue delivers jobs to workers. Dequeue blocks until a job is ready or ctx ends.
// Ack removes a delivered job from backends that redeliver unacknowledged work.
type Queue interface {
	Enqueue(ctx context.Context, j Job, delay time.Duration) error
	Dequeue(ctx context.Context) (Job, error)
	Ack(ctx context.Context, j Job) error
}

// Enqueuer is the producer half of Queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, j Job, delay time.Duration) error
}
