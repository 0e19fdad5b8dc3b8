// Package queue moves translation jobs from the update hook to background
// workers, either through Redis or through an in-process channel.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ZaguanLabs/vertrans"
)

// DefaultQueueName is the Redis list translation jobs are pushed to.
const DefaultQueueName = "vertrans:jobs"

// ErrQueueFull is returned by Channel.Dispatch when the buffer is full.
var ErrQueueFull = errors.New("translation queue is full")

// Consumer hands out queued jobs. Pop returns nil, nil when no job arrived
// within timeout.
type Consumer interface {
	Pop(ctx context.Context, timeout time.Duration) (*vertrans.Job, error)
}

func encodeJob(job vertrans.Job) (string, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("marshal translation job: %w", err)
	}
	return string(payload), nil
}

func decodeJob(payload string) (*vertrans.Job, error) {
	var job vertrans.Job
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		return nil, fmt.Errorf("decode translation job: %w", err)
	}
	if job.RecordType == "" || job.RecordID == "" {
		return nil, fmt.Errorf("translation job missing record type or id: %s", payload)
	}
	return &job, nil
}

func ensureTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}

	extra := timeout + defaultTimeout
	if timeout <= 0 {
		extra = defaultTimeout
	}
	return context.WithTimeout(ctx, extra)
}

const defaultTimeout = 5 * time.Second
