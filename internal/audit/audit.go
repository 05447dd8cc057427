// Package audit keeps the tamper-evident history of the pipeline: one
// Transition record per accepted status move and free-form Events for
// anything else worth tracing. Appends are fire-and-forget: a failed audit
// write is logged and never rolls back the business transaction, so a
// redelivered message may leave a duplicate entry behind.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventKindProcessingError = "processing.error"
	EventKindMessageDropped  = "message.dropped"
)

type Transition struct {
	ApplicationID uuid.UUID `json:"applicationId"`
	OldStatus     string    `json:"oldStatus"`
	NewStatus     string    `json:"newStatus"`
	Reason        string    `json:"reason"`
	Timestamp     time.Time `json:"timestamp"`
}

type Event struct {
	ApplicationID *uuid.UUID     `json:"applicationId,omitempty"`
	Kind          string         `json:"kind"`
	Message       string         `json:"message"`
	Details       map[string]any `json:"details,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
}

// Sink is what the producer and workers append to. Implementations absorb
// failures instead of returning them.
type Sink interface {
	AppendTransition(ctx context.Context, applicationID uuid.UUID, oldStatus, newStatus, reason string)
	AppendEvent(ctx context.Context, applicationID *uuid.UUID, kind, message string, details map[string]any)
}

// Store persists audit records. Failures surface to the Recorder, which
// logs and moves on.
type Store interface {
	AppendTransition(ctx context.Context, t Transition) error
	AppendEvent(ctx context.Context, e Event) error
}

// Publisher fans audit records out to interested consumers. Optional.
type Publisher interface {
	PublishTransitionRecorded(ctx context.Context, t Transition) error
	PublishEventRecorded(ctx context.Context, e Event) error
}
