package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sangkips/tablepos-api/internal/domain/entity"
)

const (
	// PrintKOTJob is consumed by the print worker
	PrintKOTJob = "print-kot"

	// MaxAttempts is how many times a job runs before it is dead lettered
	MaxAttempts = 5
)

// Job is the envelope stored on a Redis list
type Job struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Attempt     int             `json:"attempt"`
	EnqueuedAt  time.Time       `json:"enqueuedAt"`
	Traceparent string          `json:"traceparent,omitempty"`
	Data        json.RawMessage `json:"data"`
	Error       string          `json:"error,omitempty"`

	// raw is the list entry the job was dequeued from, used to ack it
	raw string
}

// NewJob wraps data in a first attempt envelope
func NewJob(name string, data interface{}) (*Job, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("queue: marshal %s data: %w", name, err)
	}
	return &Job{
		ID:         uuid.NewString(),
		Name:       name,
		Attempt:    1,
		EnqueuedAt: time.Now().UTC(),
		Data:       raw,
	}, nil
}

// Decode unmarshals the job data into v
func (j *Job) Decode(v interface{}) error {
	return json.Unmarshal(j.Data, v)
}

// PrintKOTData is the data of a print-kot job. Workers key idempotency on KOTID.
type PrintKOTData struct {
	KOTID    uuid.UUID         `json:"kotId"`
	TenantID uuid.UUID         `json:"tenantId"`
	OrderID  uuid.UUID         `json:"orderId"`
	Payload  entity.KOTPayload `json:"payload"`
}
