package queue

import (
	"context"
	"time"

	"github.com/ZaguanLabs/vertrans"
)

// Channel is an in-process job queue with a fixed buffer.
type Channel struct {
	jobs chan vertrans.Job
}

// NewChannel creates a queue holding up to size waiting jobs.
func NewChannel(size int) *Channel {
	if size <= 0 {
		size = 100
	}
	return &Channel{jobs: make(chan vertrans.Job, size)}
}

// Dispatch enqueues job without blocking. A full buffer yields ErrQueueFull.
func (q *Channel) Dispatch(_ context.Context, job vertrans.Job) error {
	select {
	case q.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Pop waits up to timeout for the next job.
func (q *Channel) Pop(ctx context.Context, timeout time.Duration) (*vertrans.Job, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case job := <-q.jobs:
		return &job, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len returns the number of waiting jobs.
func (q *Channel) Len() int {
	return len(q.jobs)
}

var (
	_ vertrans.Dispatcher = (*Channel)(nil)
	_ Consumer            = (*Channel)(nil)
)
