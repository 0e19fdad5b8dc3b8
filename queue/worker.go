package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ZaguanLabs/vertrans"
	"go.uber.org/zap"
)

// WorkerConfig tunes a Worker.
type WorkerConfig struct {
	Concurrency int           // Jobs run at once (default 1)
	PollTimeout time.Duration // How long one Pop waits (default 5s)
	JobTimeout  time.Duration // Upper bound for one job (0 = none)
}

// Worker pulls jobs from a Consumer and runs them.
type Worker struct {
	consumer Consumer
	handler  vertrans.JobHandler
	logger   *zap.SugaredLogger
	cfg      WorkerConfig
}

// NewWorker creates a worker. A nil logger disables logging.
func NewWorker(consumer Consumer, handler vertrans.JobHandler, logger *zap.SugaredLogger, cfg WorkerConfig) *Worker {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 5 * time.Second
	}
	return &Worker{consumer: consumer, handler: handler, logger: logger, cfg: cfg}
}

// Run processes jobs until ctx is cancelled, then waits for running jobs.
func (w *Worker) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < w.cfg.Concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.loop(ctx, id)
		}(i)
	}
	wg.Wait()
}

func (w *Worker) loop(ctx context.Context, id int) {
	w.logger.Infow("translation worker starting", "worker", id)
	for {
		if ctx.Err() != nil {
			w.logger.Infow("translation worker stopped", "worker", id)
			return
		}

		job, err := w.consumer.Pop(ctx, w.cfg.PollTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			w.logger.Errorw("failed to pop translation job", "worker", id, "error", err)
			// Avoid spinning on a broken connection
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}
		if job == nil {
			continue
		}

		w.process(ctx, id, *job)
	}
}

func (w *Worker) process(ctx context.Context, id int, job vertrans.Job) {
	jobCtx := context.WithoutCancel(ctx)
	if w.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(jobCtx, w.cfg.JobTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			w.logger.Errorw("translation job panicked", "worker", id,
				"recordType", job.RecordType, "recordID", job.RecordID, "panic", fmt.Sprint(r))
		}
	}()

	started := time.Now()
	w.logger.Infow("translation job dequeued", "worker", id, "recordType", job.RecordType, "recordID", job.RecordID)
	if err := w.handler(jobCtx, job); err != nil {
		w.logger.Errorw("translation job failed", "worker", id,
			"recordType", job.RecordType, "recordID", job.RecordID, "error", err)
		return
	}
	w.logger.Infow("translation job done", "worker", id,
		"recordType", job.RecordType, "recordID", job.RecordID, "duration", time.Since(started))
}
