package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisQueue keeps ready jobs in a list and delayed ones in a sorted set scored by due time.
// Delivery is at-most-once: BRPOP removes the job before it runs.
type RedisQueue struct {
	Client redis.Cmdable
	Key    string
	// Poll bounds each blocking pop so delayed jobs get promoted.
	Poll time.Duration
}

func NewRedisQueue(client redis.Cmdable, key string) *RedisQueue {
	return &RedisQueue{Client: client, Key: key, Poll: time.Second}
}

func (q *RedisQueue) delayedKey() string { return q.Key + ":delayed" }

func (q *RedisQueue) Enqueue(ctx context.Context, j Job, delay time.Duration) error {
	b, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	if delay > 0 {
		due := float64(time.Now().Add(delay).UnixMilli())
		return q.Client.ZAdd(ctx, q.delayedKey(), redis.Z{Score: due, Member: b}).Err()
	}
	return q.Client.LPush(ctx, q.Key, b).Err()
}

func (q *RedisQueue) Dequeue(ctx context.Context) (Job, error) {
	for {
		if err := q.promote(ctx); err != nil {
			return Job{}, err
		}
		res, err := q.Client.BRPop(ctx, q.Poll, q.Key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return Job{}, ctx.Err()
			}
			return Job{}, fmt.Errorf("brpop %s: %w", q.Key, err)
		}
		// res is [key, value]
		var j Job
		if err := json.Unmarshal([]byte(res[1]), &j); err != nil {
			return Job{}, fmt.Errorf("decode job: %w", err)
		}
		return j, nil
	}
}

// promote moves due delayed jobs onto the ready list. ZRem guards against two
// consumers moving the same member.
func (q *RedisQueue) promote(ctx context.Context) error {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	due, err := q.Client.ZRangeByScore(ctx, q.delayedKey(), &redis.ZRangeBy{Min: "-inf", Max: now}).Result()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("zrangebyscore %s: %w", q.delayedKey(), err)
	}
	for _, m := range due {
		n, err := q.Client.ZRem(ctx, q.delayedKey(), m).Result()
		if err != nil {
			return err
		}
		if n == 1 {
			if err := q.Client.LPush(ctx, q.Key, m).Err(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (q *RedisQueue) Ack(context.Context, Job) error { return nil }
