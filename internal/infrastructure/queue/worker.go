package queue

import (
	"context"
	"errors"
	"time"

	"github.com/sangkips/tablepos-api/pkg/logger"
	"github.com/sangkips/tablepos-api/pkg/tracing"
)

// Handler processes one job. A returned error schedules a retry.
type Handler func(ctx context.Context, job *Job) error

// Worker consumes a RedisQueue one job at a time
type Worker struct {
	queue        *RedisQueue
	handlers     map[string]Handler
	blockTimeout time.Duration
}

// NewWorker creates a worker that waits up to blockTimeout per poll
func NewWorker(queue *RedisQueue, blockTimeout time.Duration) *Worker {
	if blockTimeout <= 0 {
		blockTimeout = 5 * time.Second
	}
	return &Worker{
		queue:        queue,
		handlers:     make(map[string]Handler),
		blockTimeout: blockTimeout,
	}
}

// Handle registers the handler for jobs named name
func (w *Worker) Handle(name string, h Handler) {
	w.handlers[name] = h
}

// Run polls until ctx is cancelled. A job that has been dequeued is always
// finished before Run returns. Jobs a previous run left unacked are put back
// on the queue first.
func (w *Worker) Run(ctx context.Context) error {
	recovered, err := w.queue.RecoverInFlight(ctx)
	if err != nil {
		return err
	}
	logger.Info(ctx).Str("queue", w.queue.Name()).Int("recovered", recovered).Msg("worker started")
	for {
		if ctx.Err() != nil {
			logger.Info(ctx).Str("queue", w.queue.Name()).Msg("worker stopped")
			return nil
		}

		job, err := w.queue.Dequeue(ctx, w.blockTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				continue
			}
			logger.Error(ctx).Err(err).Str("queue", w.queue.Name()).Msg("dequeue failed")
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}
		if job == nil {
			continue
		}

		w.process(context.WithoutCancel(ctx), job)
	}
}

func (w *Worker) process(ctx context.Context, job *Job) {
	if job.Traceparent != "" {
		ctx = tracing.Extract(ctx, map[string]string{"traceparent": job.Traceparent})
	}
	ctx, span := tracing.Start(ctx, "queue.process."+job.Name)
	defer span.End()

	log := logger.WithContext(ctx).With().
		Str("job_id", job.ID).
		Str("job", job.Name).
		Int("attempt", job.Attempt).
		Logger()

	handler, ok := w.handlers[job.Name]
	if !ok {
		log.Error().Msg("no handler for job, dead lettering")
		job.Attempt = MaxAttempts
		if err := w.queue.Requeue(ctx, job, errors.New("no handler")); err != nil {
			log.Error().Err(err).Msg("dead letter failed")
		}
		return
	}

	if err := handler(ctx, job); err != nil {
		span.RecordError(err)
		log.Warn().Err(err).Msg("job failed")
		if err := w.queue.Requeue(ctx, job, err); err != nil {
			log.Error().Err(err).Msg("requeue failed")
		}
		return
	}
	if err := w.queue.Ack(ctx, job); err != nil {
		log.Error().Err(err).Msg("ack failed")
		return
	}
	log.Debug().Msg("job done")
}
