package client

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Repository interface {
	// UpsertByEmailInTx inserts the client, or updates contact fields and
	// credit score when a client with the same email already exists. The
	// returned client carries the persisted identity either way.
	UpsertByEmailInTx(ctx context.Context, tx pgx.Tx, c *Client) (*Client, error)

	GetByID(ctx context.Context, clientID uuid.UUID) (*Client, error)

	// GetByIDInTx reads the client inside the caller's transaction. Decisions
	// use it so the credit score is current at decision time.
	GetByIDInTx(ctx context.Context, tx pgx.Tx, clientID uuid.UUID) (*Client, error)
}
