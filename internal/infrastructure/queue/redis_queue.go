package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sangkips/tablepos-api/pkg/logger"
	"github.com/sangkips/tablepos-api/pkg/tracing"
)

// RedisQueue is a FIFO job queue on a Redis list. Producers LPUSH, the
// worker BLMOVEs each job onto a processing list and removes it from there
// once the job is finished, so a worker that dies mid job loses nothing.
type RedisQueue struct {
	client  redis.UniversalClient
	name    string
	retries int
	backoff time.Duration
}

// NewRedisQueue creates a queue named name. Enqueue is attempted retries
// times before giving up.
func NewRedisQueue(client redis.UniversalClient, name string, retries int) *RedisQueue {
	if retries < 1 {
		retries = 1
	}
	return &RedisQueue{
		client:  client,
		name:    name,
		retries: retries,
		backoff: 100 * time.Millisecond,
	}
}

// Name returns the list key
func (q *RedisQueue) Name() string { return q.name }

// DeadLetterName returns the list holding jobs that exhausted their attempts
func (q *RedisQueue) DeadLetterName() string { return q.name + ":dead" }

// ProcessingName returns the list holding jobs taken but not yet acked
func (q *RedisQueue) ProcessingName() string { return q.name + ":processing" }

// Enqueue wraps data in a job envelope and pushes it
func (q *RedisQueue) Enqueue(ctx context.Context, name string, data interface{}) (*Job, error) {
	job, err := NewJob(name, data)
	if err != nil {
		return nil, err
	}
	job.Traceparent = tracing.Inject(ctx)["traceparent"]
	if err := q.push(ctx, q.name, job); err != nil {
		return nil, err
	}
	return job, nil
}

// Requeue pushes job back for another attempt, or moves it to the dead
// letter list once MaxAttempts is reached.
func (q *RedisQueue) Requeue(ctx context.Context, job *Job, cause error) error {
	if cause != nil {
		job.Error = cause.Error()
	}
	if job.Attempt >= MaxAttempts {
		logger.Warn(ctx).
			Str("job_id", job.ID).
			Str("job", job.Name).
			Int("attempt", job.Attempt).
			Msg("job exhausted its attempts, moving to dead letter")
		if err := q.push(ctx, q.DeadLetterName(), job); err != nil {
			return err
		}
		return q.Ack(ctx, job)
	}
	job.Attempt++
	if err := q.push(ctx, q.name, job); err != nil {
		return err
	}
	return q.Ack(ctx, job)
}

func (q *RedisQueue) push(ctx context.Context, list string, job *Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue: marshal job: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= q.retries; attempt++ {
		if lastErr = q.client.LPush(ctx, list, body).Err(); lastErr == nil {
			return nil
		}
		logger.Warn(ctx).Err(lastErr).
			Str("queue", list).
			Str("job_id", job.ID).
			Int("attempt", attempt).
			Msg("enqueue failed")
		if attempt == q.retries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * q.backoff):
		}
	}
	return fmt.Errorf("queue: push to %s: %w", list, lastErr)
}

// Dequeue blocks up to timeout for the next job and parks it on the
// processing list until Ack. It returns nil, nil when the timeout passes
// with an empty queue.
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	raw, err := q.client.BLMove(ctx, q.name, q.ProcessingName(), "RIGHT", "LEFT", timeout).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		// undecodable entries go straight to the dead letter list
		pipe := q.client.TxPipeline()
		pipe.LPush(ctx, q.DeadLetterName(), raw)
		pipe.LRem(ctx, q.ProcessingName(), 1, raw)
		if _, perr := pipe.Exec(ctx); perr != nil {
			logger.Error(ctx).Err(perr).Str("queue", q.name).Msg("dead lettering undecodable job failed")
		}
		return nil, fmt.Errorf("queue: decode job: %w", err)
	}
	job.raw = raw
	return &job, nil
}

// Ack removes a finished job from the processing list
func (q *RedisQueue) Ack(ctx context.Context, job *Job) error {
	if job.raw == "" {
		return nil
	}
	if err := q.client.LRem(ctx, q.ProcessingName(), 1, job.raw).Err(); err != nil {
		return fmt.Errorf("queue: ack %s: %w", job.ID, err)
	}
	job.raw = ""
	return nil
}

// RecoverInFlight moves jobs left on the processing list by a worker that
// stopped without acking back to the head of the queue, oldest first. It
// must only run while no other worker consumes the queue.
func (q *RedisQueue) RecoverInFlight(ctx context.Context) (int, error) {
	n := 0
	for {
		err := q.client.LMove(ctx, q.ProcessingName(), q.name, "LEFT", "RIGHT").Err()
		if errors.Is(err, redis.Nil) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("queue: recover in-flight jobs: %w", err)
		}
		n++
	}
}

// Len returns the number of waiting jobs
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.name).Result()
}

// Deduper records keys that have already been handled
type Deduper struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewDeduper creates a deduper whose keys expire after ttl
func NewDeduper(client redis.UniversalClient, ttl time.Duration) *Deduper {
	return &Deduper{client: client, ttl: ttl}
}

// Acquire reports whether key was free and is now taken
func (d *Deduper) Acquire(ctx context.Context, key string) (bool, error) {
	return d.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), d.ttl).Result()
}

// Release frees key so a later attempt can take it
func (d *Deduper) Release(ctx context.Context, key string) error {
	return d.client.Del(ctx, key).Err()
}
