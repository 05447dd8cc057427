package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"origination-engine/internal/domain/application"
	"origination-engine/internal/infrastructure/monitoring"
	"origination-engine/internal/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ApplicationRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ application.Repository = (*ApplicationRepository)(nil)

func NewApplicationRepository(db DBPool, logger *slog.Logger) *ApplicationRepository {
	if db == nil {
		panic("DBPool cannot be nil for ApplicationRepository")
	}
	return &ApplicationRepository{
		db:     db,
		logger: logger.With("component", "ApplicationRepository"),
	}
}

func (r *ApplicationRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return tx, nil
}

func (r *ApplicationRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	err := tx.Commit(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to commit transaction", slog.Any("error", err))
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *ApplicationRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	err := tx.Rollback(ctx)

	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		r.logger.ErrorContext(ctx, "Failed to rollback transaction", slog.Any("error", err))
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *ApplicationRepository) CreateInTx(ctx context.Context, tx pgx.Tx, app *application.Application) error {
	if app == nil {
		return fmt.Errorf("%w: application cannot be nil", apperrors.ErrInvalidArgument)
	}

	r.logger.InfoContext(ctx, "Inserting new application", slog.String("applicationID", app.ID.String()))

	query := `
        INSERT INTO applications (id, client_id, amount, term_months, purpose, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
        RETURNING created_at, updated_at`

	err := tx.QueryRow(ctx, query,
		app.ID, app.ClientID, app.Amount, app.TermMonths, app.Purpose, app.Status,
	).Scan(&app.CreatedAt, &app.UpdatedAt)

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert application", slog.Any("error", err))
		return translateDBError(err, r.logger)
	}

	return nil
}

func (r *ApplicationRepository) GetByID(ctx context.Context, applicationID uuid.UUID) (*application.Application, error) {
	query := `
        SELECT id, client_id, amount, term_months, purpose, status, decision_reason, created_at, updated_at, decided_at
        FROM applications
        WHERE id = $1`

	status := "success"
	startTime := time.Now()

	var app application.Application
	err := r.db.QueryRow(ctx, query, applicationID).Scan(
		&app.ID, &app.ClientID, &app.Amount, &app.TermMonths, &app.Purpose,
		&app.Status, &app.DecisionReason, &app.CreatedAt, &app.UpdatedAt, &app.DecidedAt,
	)

	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("GetApplicationByID", status, time.Since(startTime))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Application not found", slog.String("applicationID", applicationID.String()))
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get application by ID", slog.Any("error", err))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	return &app, nil
}

// GetByIDForUpdateInTx locks the application row for the rest of the
// transaction. Workers take this lock before every status change.
func (r *ApplicationRepository) GetByIDForUpdateInTx(ctx context.Context, tx pgx.Tx, applicationID uuid.UUID) (*application.Application, error) {
	query := `
        SELECT id, client_id, amount, term_months, purpose, status, decision_reason, created_at, updated_at, decided_at
        FROM applications
        WHERE id = $1
        FOR UPDATE`

	var app application.Application
	err := tx.QueryRow(ctx, query, applicationID).Scan(
		&app.ID, &app.ClientID, &app.Amount, &app.TermMonths, &app.Purpose,
		&app.Status, &app.DecisionReason, &app.CreatedAt, &app.UpdatedAt, &app.DecidedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Application not found for update", slog.String("applicationID", applicationID.String()))
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to lock application row", slog.Any("error", err))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	return &app, nil
}

// UpdateStatusInTx moves the application from one status to another with a
// compare-and-set on the current status. decision_reason and decided_at are
// written only when the new status is terminal.
func (r *ApplicationRepository) UpdateStatusInTx(ctx context.Context, tx pgx.Tx, applicationID uuid.UUID, from, to application.Status, reason string) error {
	if !from.CanTransitionTo(to) {
		r.logger.WarnContext(ctx, "Refused illegal status transition",
			slog.String("applicationID", applicationID.String()),
			slog.String("from", string(from)),
			slog.String("to", string(to)))
		return fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidTransition, from, to)
	}

	query := `
        UPDATE applications
        SET status = $1,
            decision_reason = CASE WHEN $1 IN ('APPROVED', 'REJECTED') THEN $2 ELSE decision_reason END,
            decided_at = CASE WHEN $1 IN ('APPROVED', 'REJECTED') THEN NOW() ELSE decided_at END,
            updated_at = NOW()
        WHERE id = $3 AND status = $4`

	status := "success"
	startTime := time.Now()

	cmdTag, err := tx.Exec(ctx, query, to, reason, applicationID, from)

	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("UpdateApplicationStatus", status, time.Since(startTime))

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update application status", slog.Any("error", err))
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	if cmdTag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "Status update affected zero rows, application missing or status changed",
			slog.String("applicationID", applicationID.String()),
			slog.String("expectedStatus", string(from)))
		return fmt.Errorf("%w: application %s is not in status %s", apperrors.ErrInvalidTransition, applicationID, from)
	}

	r.logger.InfoContext(ctx, "Application status updated",
		slog.String("applicationID", applicationID.String()),
		slog.String("from", string(from)),
		slog.String("to", string(to)))
	return nil
}

// ForceRejectInTx rejects the application regardless of its current status,
// unless it already reached a terminal one. Zero affected rows means the
// application was already decided or never existed, which is not an error
// for the containment path that calls this.
func (r *ApplicationRepository) ForceRejectInTx(ctx context.Context, tx pgx.Tx, applicationID uuid.UUID, reason string) error {
	query := `
        UPDATE applications
        SET status = 'REJECTED',
            decision_reason = $2,
            decided_at = NOW(),
            updated_at = NOW()
        WHERE id = $1 AND status NOT IN ('APPROVED', 'REJECTED')`

	cmdTag, err := tx.Exec(ctx, query, applicationID, reason)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to force reject application", slog.Any("error", err))
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	if cmdTag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "Force reject affected zero rows, application terminal or missing",
			slog.String("applicationID", applicationID.String()))
		return nil
	}

	r.logger.InfoContext(ctx, "Application force rejected",
		slog.String("applicationID", applicationID.String()),
		slog.String("reason", reason))
	return nil
}
