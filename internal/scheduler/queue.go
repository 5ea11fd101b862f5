// Package scheduler delivers timer expiries to the engine.
//
// Pending jobs live in a Redis sorted set scored by due time. A Poller claims due jobs and
// sweeps Postgres for active timers the queue never saw, so the timer rows stay the source
// of truth and a lost job only delays an expiry.
package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisQueue is a delayed job queue keyed by timer ID.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue creates a queue stored under key.
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	return &RedisQueue{client: client, key: key}
}

// Schedule queues a timer to fire at the given time, replacing any earlier job for it.
func (q *RedisQueue) Schedule(ctx context.Context, timerID int64, at time.Time) error {
	err := q.client.ZAdd(ctx, q.key, redis.Z{
		Score:  float64(at.UnixMilli()),
		Member: strconv.FormatInt(timerID, 10),
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to schedule timer %d: %w", timerID, err)
	}
	return nil
}

// Cancel drops a queued job. Cancelling an unknown timer is not an error.
func (q *RedisQueue) Cancel(ctx context.Context, timerID int64) error {
	if err := q.client.ZRem(ctx, q.key, strconv.FormatInt(timerID, 10)).Err(); err != nil {
		return fmt.Errorf("failed to cancel timer %d: %w", timerID, err)
	}
	return nil
}

// Claim takes up to limit jobs due at or before now. A job is claimed by the consumer whose
// ZREM removes it, so concurrent pollers never receive the same job from one Claim round.
func (q *RedisQueue) Claim(ctx context.Context, now time.Time, limit int) ([]int64, error) {
	members, err := q.client.ZRangeByScore(ctx, q.key, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.UnixMilli(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list due timers: %w", err)
	}

	var claimed []int64
	for _, m := range members {
		removed, err := q.client.ZRem(ctx, q.key, m).Result()
		if err != nil {
			return claimed, fmt.Errorf("failed to claim timer %s: %w", m, err)
		}
		if removed == 0 {
			continue
		}
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		claimed = append(claimed, id)
	}
	return claimed, nil
}

// Pending returns the number of queued jobs.
func (q *RedisQueue) Pending(ctx context.Context) (int64, error) {
	n, err := q.client.ZCard(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count queued timers: %w", err)
	}
	return n, nil
}
