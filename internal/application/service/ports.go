package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/sangkips/tablepos-api/internal/domain/repository"
	"github.com/sangkips/tablepos-api/internal/infrastructure/messaging"
	"github.com/sangkips/tablepos-api/internal/infrastructure/queue"
	"github.com/sangkips/tablepos-api/pkg/logger"
)

// JobQueue accepts background jobs
type JobQueue interface {
	Enqueue(ctx context.Context, name string, data interface{}) (*queue.Job, error)
}

// EventPublisher delivers domain events after commit
type EventPublisher interface {
	Publish(ctx context.Context, msg messaging.Message) error
}

// Clock returns the current time
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

// publish sends an event and logs a failure instead of returning it; the
// committed state is the source of truth.
func publish(ctx context.Context, publisher EventPublisher, msg messaging.Message) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, msg); err != nil {
		logger.Warn(ctx).Err(err).
			Str("topic", msg.Topic).
			Str("event_type", msg.Type).
			Str("event_id", msg.ID).
			Msg("event publish failed")
	}
}

func newEventID() string {
	return "evt_" + uuid.NewString()
}

func isDuplicate(err error) bool {
	return errors.Is(err, repository.ErrDuplicate)
}
