package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/dubbing-service/internal/domain/entities"
)

// JobEvent is emitted after every persisted status or progress change
type JobEvent struct {
	JobID        uuid.UUID          `json:"job_id"`
	Status       entities.JobStatus `json:"status"`
	Progress     int                `json:"progress"`
	ErrorMessage string             `json:"error_message,omitempty"`
	At           time.Time          `json:"at"`
}

// EventPublisher delivers job events to observers
type EventPublisher interface {
	PublishJobEvent(ctx context.Context, event JobEvent) error
}

// NopPublisher drops every event
type NopPublisher struct{}

// PublishJobEvent implements EventPublisher
func (NopPublisher) PublishJobEvent(context.Context, JobEvent) error { return nil }
