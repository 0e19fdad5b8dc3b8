package vertrans

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Dispatcher hands translation jobs to whatever runs them. Dispatch must not
// wait for the job to finish.
type Dispatcher interface {
	Dispatch(ctx context.Context, job Job) error
}

// JobHandler runs a single translation job.
type JobHandler func(ctx context.Context, job Job) error

// InlineDispatcher runs each job in its own goroutine within the process.
// Jobs are detached from the dispatching context, so a finished request
// does not cancel the translation it triggered.
type InlineDispatcher struct {
	handler JobHandler
	logger  *zap.SugaredLogger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewInlineDispatcher creates an in-process dispatcher. A timeout of 0 means no limit.
func NewInlineDispatcher(handler JobHandler, logger *zap.SugaredLogger, timeout time.Duration) *InlineDispatcher {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &InlineDispatcher{
		handler: handler,
		logger:  logger,
		timeout: timeout,
	}
}

// Dispatch starts the job and returns immediately.
func (d *InlineDispatcher) Dispatch(ctx context.Context, job Job) error {
	jobCtx := context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.run(jobCtx, job)
	}()
	return nil
}

func (d *InlineDispatcher) run(ctx context.Context, job Job) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Errorw("translation job panicked",
				"recordType", job.RecordType, "recordID", job.RecordID, "panic", fmt.Sprint(r))
		}
	}()

	if err := d.handler(ctx, job); err != nil {
		d.logger.Errorw("translation job failed",
			"recordType", job.RecordType, "recordID", job.RecordID, "error", err)
	}
}

// Wait blocks until all dispatched jobs have finished.
func (d *InlineDispatcher) Wait() {
	d.wg.Wait()
}
