package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	applog "neurocart/internal/log"
)

// Handler processes one job. A returned error schedules a retry.
type Handler func(ctx context.Context, j Job) error

type Options struct {
	Workers     int
	MaxAttempts int
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

type Runner struct {
	queue    Queue
	opt      Options
	handlers map[string]Handler
}

func NewRunner(q Queue, opt Options) *Runner {
	if opt.Workers <= 0 {
		opt.Workers = 1
	}
	if opt.MaxAttempts <= 0 {
		opt.MaxAttempts = 5
	}
	if opt.BackoffBase <= 0 {
		opt.BackoffBase = time.Second
	}
	if opt.BackoffMax <= 0 {
		opt.BackoffMax = time.Minute
	}
	return &Runner{queue: q, opt: opt, handlers: map[string]Handler{}}
}

// Handle registers h for kind. Must be called before Run.
func (r *Runner) Handle(kind string, h Handler) { r.handlers[kind] = h }

// Backoff returns base·2^(attempt−1), capped at max. attempt starts at 1.
func Backoff(attempt int, base, max time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}

// Run starts the workers and blocks until ctx is cancelled and all of them have returned.
func (r *Runner) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < r.opt.Workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r.loop(ctx, worker)
		}(i)
	}
	wg.Wait()
}

func (r *Runner) loop(ctx context.Context, worker int) {
	for {
		j, err := r.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			applog.Error(nil, "jobs.dequeue.fail", err, map[string]any{"worker": worker})
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		r.process(ctx, j)
	}
}

// process runs one job and settles it: ack on success, requeue with backoff on failure,
// dead-letter (logged) once attempts are exhausted.
func (r *Runner) process(ctx context.Context, j Job) {
	h, ok := r.handlers[j.Kind]
	var err error
	if !ok {
		err = fmt.Errorf("no handler for kind %q", j.Kind)
	} else {
		err = safeCall(ctx, h, j)
	}

	if err == nil {
		applog.Info(nil, "jobs.done", map[string]any{"id": j.ID, "kind": j.Kind, "attempt": j.Attempt + 1})
		r.ack(ctx, j)
		return
	}

	j.Attempt++
	if !ok || j.Attempt >= r.opt.MaxAttempts {
		applog.Error(nil, "jobs.dead", err, map[string]any{"id": j.ID, "kind": j.Kind, "attempts": j.Attempt})
		r.ack(ctx, j)
		return
	}

	delay := Backoff(j.Attempt, r.opt.BackoffBase, r.opt.BackoffMax)
	applog.Error(nil, "jobs.retry", err, map[string]any{"id": j.ID, "kind": j.Kind, "attempt": j.Attempt, "delay_ms": delay.Milliseconds()})
	retry := j
	retry.receipt = ""
	if qerr := r.queue.Enqueue(ctx, retry, delay); qerr != nil {
		// leave the original unacked so backends with redelivery can retry it
		applog.Error(nil, "jobs.requeue.fail", qerr, map[string]any{"id": j.ID, "kind": j.Kind})
		return
	}
	r.ack(ctx, j)
}

func (r *Runner) ack(ctx context.Context, j Job) {
	if err := r.queue.Ack(ctx, j); err != nil {
		applog.Error(nil, "jobs.ack.fail", err, map[string]any{"id": j.ID, "kind": j.Kind})
	}
}

var errPanic = errors.New("handler panicked")

func safeCall(ctx context.Context, h Handler, j Job) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", errPanic, p)
		}
	}()
	return h(ctx, j)
}
