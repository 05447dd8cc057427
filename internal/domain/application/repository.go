package application

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Repository interface {
	CreateInTx(ctx context.Context, tx pgx.Tx, app *Application) error

	GetByID(ctx context.Context, applicationID uuid.UUID) (*Application, error)

	// GetByIDForUpdateInTx row-locks the application for the life of the
	// transaction so concurrent workers serialize on it.
	GetByIDForUpdateInTx(ctx context.Context, tx pgx.Tx, applicationID uuid.UUID) (*Application, error)

	// UpdateStatusInTx moves the application from one status to another with a
	// compare-and-set on the current status. It returns
	// apperrors.ErrInvalidTransition when the row is no longer in `from`.
	UpdateStatusInTx(ctx context.Context, tx pgx.Tx, applicationID uuid.UUID, from, to Status, reason string) error

	// ForceRejectInTx moves any non-terminal application to REJECTED. Rows
	// already terminal are left untouched.
	ForceRejectInTx(ctx context.Context, tx pgx.Tx, applicationID uuid.UUID, reason string) error

	BeginTx(ctx context.Context) (pgx.Tx, error)

	CommitTx(ctx context.Context, tx pgx.Tx) error

	RollbackTx(ctx context.Context, tx pgx.Tx) error
}
