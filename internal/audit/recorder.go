package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

var _ Sink = (*Recorder)(nil)

// Recorder writes every record to the store and, when a publisher is
// configured, fans it out as well. Neither failure propagates to the caller.
type Recorder struct {
	store     Store
	publisher Publisher
	logger    *slog.Logger
}

func NewRecorder(store Store, publisher Publisher, logger *slog.Logger) *Recorder {
	if store == nil {
		panic("audit store cannot be nil")
	}
	return &Recorder{
		store:     store,
		publisher: publisher,
		logger:    logger.With(slog.String("component", "auditRecorder")),
	}
}

func (r *Recorder) AppendTransition(ctx context.Context, applicationID uuid.UUID, oldStatus, newStatus, reason string) {
	t := Transition{
		ApplicationID: applicationID,
		OldStatus:     oldStatus,
		NewStatus:     newStatus,
		Reason:        reason,
		Timestamp:     time.Now(),
	}

	logCtx := r.logger.With(
		slog.String("applicationID", applicationID.String()),
		slog.String("oldStatus", oldStatus),
		slog.String("newStatus", newStatus),
	)

	if err := r.store.AppendTransition(ctx, t); err != nil {
		logCtx.ErrorContext(ctx, "Failed to persist status transition audit record", slog.Any("error", err))
		return
	}

	if r.publisher != nil {
		if err := r.publisher.PublishTransitionRecorded(ctx, t); err != nil {
			logCtx.ErrorContext(ctx, "Failed to publish status transition audit record", slog.Any("error", err))
		}
	}
}

func (r *Recorder) AppendEvent(ctx context.Context, applicationID *uuid.UUID, kind, message string, details map[string]any) {
	e := Event{
		ApplicationID: applicationID,
		Kind:          kind,
		Message:       message,
		Details:       details,
		Timestamp:     time.Now(),
	}

	logCtx := r.logger.With(slog.String("kind", kind))
	if applicationID != nil {
		logCtx = logCtx.With(slog.String("applicationID", applicationID.String()))
	}

	if err := r.store.AppendEvent(ctx, e); err != nil {
		logCtx.ErrorContext(ctx, "Failed to persist audit event", slog.Any("error", err))
		return
	}

	if r.publisher != nil {
		if err := r.publisher.PublishEventRecorded(ctx, e); err != nil {
			logCtx.ErrorContext(ctx, "Failed to publish audit event", slog.Any("error", err))
		}
	}
}
