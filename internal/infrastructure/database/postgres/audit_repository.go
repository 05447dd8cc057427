package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"origination-engine/internal/audit"
	"origination-engine/internal/infrastructure/monitoring"
	"origination-engine/internal/pkg/apperrors"
)

// AuditRepository appends to two append-only tables. Rows are never updated
// or deleted; a database trigger rejects attempts.
type AuditRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ audit.Store = (*AuditRepository)(nil)

func NewAuditRepository(db DBPool, logger *slog.Logger) *AuditRepository {
	if db == nil {
		panic("DBPool cannot be nil for AuditRepository")
	}
	return &AuditRepository{
		db:     db,
		logger: logger.With("component", "AuditRepository"),
	}
}

func (r *AuditRepository) AppendTransition(ctx context.Context, t audit.Transition) error {
	query := `
        INSERT INTO status_transitions (application_id, old_status, new_status, reason, recorded_at)
        VALUES ($1, $2, $3, $4, $5)`

	status := "success"
	startTime := time.Now()

	_, err := r.db.Exec(ctx, query, t.ApplicationID, t.OldStatus, t.NewStatus, t.Reason, t.Timestamp)

	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("AppendStatusTransition", status, time.Since(startTime))

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to append status transition", slog.Any("error", err))
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	return nil
}

func (r *AuditRepository) AppendEvent(ctx context.Context, e audit.Event) error {
	var details []byte
	if e.Details != nil {
		var err error
		details, err = json.Marshal(e.Details)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to encode audit event details", slog.Any("error", err))
			return fmt.Errorf("%w: failed to encode audit event details: %w", apperrors.ErrInvalidArgument, err)
		}
	}

	query := `
        INSERT INTO audit_events (application_id, kind, message, details, recorded_at)
        VALUES ($1, $2, $3, $4, $5)`

	status := "success"
	startTime := time.Now()

	_, err := r.db.Exec(ctx, query, e.ApplicationID, e.Kind, e.Message, details, e.Timestamp)

	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("AppendAuditEvent", status, time.Since(startTime))

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to append audit event", slog.Any("error", err))
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	return nil
}
