package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"origination-engine/internal/domain/client"
	"origination-engine/internal/infrastructure/monitoring"
	"origination-engine/internal/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ClientRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ client.Repository = (*ClientRepository)(nil)

func NewClientRepository(db DBPool, logger *slog.Logger) *ClientRepository {
	if db == nil {
		panic("DBPool cannot be nil for ClientRepository")
	}
	return &ClientRepository{
		db:     db,
		logger: logger.With("component", "ClientRepository"),
	}
}

func (r *ClientRepository) UpsertByEmailInTx(ctx context.Context, tx pgx.Tx, c *client.Client) (*client.Client, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: client cannot be nil", apperrors.ErrInvalidArgument)
	}

	r.logger.InfoContext(ctx, "Upserting client by email")

	query := `
        INSERT INTO clients (id, first_name, last_name, email, phone, credit_score, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
        ON CONFLICT (email) DO UPDATE
        SET first_name = EXCLUDED.first_name,
            last_name = EXCLUDED.last_name,
            phone = EXCLUDED.phone,
            credit_score = EXCLUDED.credit_score,
            updated_at = NOW()
        RETURNING id, first_name, last_name, email, phone, credit_score, created_at, updated_at`

	status := "success"
	startTime := time.Now()

	var persisted client.Client
	err := tx.QueryRow(ctx, query,
		c.ID, c.FirstName, c.LastName, c.Email, c.Phone, c.CreditScore,
	).Scan(
		&persisted.ID, &persisted.FirstName, &persisted.LastName, &persisted.Email,
		&persisted.Phone, &persisted.CreditScore, &persisted.CreatedAt, &persisted.UpdatedAt,
	)

	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("UpsertClientByEmail", status, time.Since(startTime))

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to upsert client", slog.Any("error", err))
		return nil, translateDBError(err, r.logger)
	}

	r.logger.InfoContext(ctx, "Client upserted successfully", slog.String("clientID", persisted.ID.String()))
	return &persisted, nil
}

func (r *ClientRepository) GetByID(ctx context.Context, clientID uuid.UUID) (*client.Client, error) {
	r.logger.InfoContext(ctx, "Attempting to find client by ID")

	query := `
        SELECT id, first_name, last_name, email, phone, credit_score, created_at, updated_at
        FROM clients
        WHERE id = $1`

	status := "success"
	startTime := time.Now()

	var c client.Client
	err := r.db.QueryRow(ctx, query, clientID).Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Email,
		&c.Phone, &c.CreditScore, &c.CreatedAt, &c.UpdatedAt,
	)

	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("GetClientByID", status, time.Since(startTime))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Client not found", slog.String("clientID", clientID.String()))
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to query/scan client by ID", slog.Any("error", err))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	return &c, nil
}

func (r *ClientRepository) GetByIDInTx(ctx context.Context, tx pgx.Tx, clientID uuid.UUID) (*client.Client, error) {
	query := `
        SELECT id, first_name, last_name, email, phone, credit_score, created_at, updated_at
        FROM clients
        WHERE id = $1`

	var c client.Client
	err := tx.QueryRow(ctx, query, clientID).Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Email,
		&c.Phone, &c.CreditScore, &c.CreatedAt, &c.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Client not found in transaction", slog.String("clientID", clientID.String()))
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to query/scan client in transaction", slog.Any("error", err))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	return &c, nil
}
