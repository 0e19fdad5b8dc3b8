package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ZaguanLabs/vertrans"
	"github.com/redis/go-redis/v9"
)

// Redis is a job queue on a Redis list. Dispatch pushes with LPUSH and Pop
// blocks on BRPOP, so jobs are handed out oldest first.
type Redis struct {
	client *redis.Client
	name   string
}

// NewRedis creates a Redis queue. An empty name uses DefaultQueueName.
func NewRedis(client *redis.Client, name string) *Redis {
	if name == "" {
		name = DefaultQueueName
	}
	return &Redis{client: client, name: name}
}

// Dispatch enqueues job and returns without waiting for it to run.
func (q *Redis) Dispatch(ctx context.Context, job vertrans.Job) error {
	payload, err := encodeJob(job)
	if err != nil {
		return err
	}
	if err := q.client.LPush(ctx, q.name, payload).Err(); err != nil {
		return fmt.Errorf("enqueue translation job: %w", err)
	}
	return nil
}

// Pop waits up to timeout for the next job.
func (q *Redis) Pop(ctx context.Context, timeout time.Duration) (*vertrans.Job, error) {
	ctxWithDeadline, cancel := ensureTimeout(ctx, timeout)
	defer cancel()

	reply, err := q.client.BRPop(ctxWithDeadline, timeout, q.name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("dequeue translation job: %w", err)
	}
	if len(reply) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP reply: %#v", reply)
	}
	return decodeJob(reply[1])
}

// Len returns the number of waiting jobs.
func (q *Redis) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.name).Result()
}

var (
	_ vertrans.Dispatcher = (*Redis)(nil)
	_ Consumer            = (*Redis)(nil)
)
