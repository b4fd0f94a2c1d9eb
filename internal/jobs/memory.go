package jobs

import (
	"context"
	"sync"
	"time"
)

// MemoryQueue is an unbounded in-process FIFO. Delayed jobs are held by timers.
type MemoryQueue struct {
	mu    sync.Mutex
	items []Job
	ready chan struct{}
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{ready: make(chan struct{}, 1)}
}

func (q *MemoryQueue) Enqueue(_ context.Context, j Job, delay time.Duration) error {
	if delay > 0 {
		time.AfterFunc(delay, func() { q.push(j) })
		return nil
	}
	q.push(j)
	return nil
}

func (q *MemoryQueue) push(j Job) {
	q.mu.Lock()
	q.items = append(q.items, j)
	q.mu.Unlock()
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (Job, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			j := q.items[0]
			q.items = q.items[1:]
			more := len(q.items) > 0
			q.mu.Unlock()
			if more {
				// wake the next waiting worker
				select {
				case q.ready <- struct{}{}:
				default:
				}
			}
			return j, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return Job{}, ctx.Err()
		case <-q.ready:
		}
	}
}

func (q *MemoryQueue) Ack(context.Context, Job) error { return nil }

// Len reports the number of ready jobs.
func (q *MemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
