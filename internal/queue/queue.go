// Package queue defines the durable queue contract the intake producer and
// the decision workers share. Enqueue and Dequeue run inside the caller's
// transaction: an enqueued message becomes visible only when the producer's
// transaction commits, and a dequeued message reappears for redelivery if the
// consumer's transaction rolls back. FIFO holds within a conversation only.
package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Queue interface {
	// Enqueue opens a new conversation carrying msg and returns its id. The
	// message is visible to consumers only after tx commits.
	Enqueue(ctx context.Context, tx pgx.Tx, msg Message) (uuid.UUID, error)

	// Dequeue claims the oldest pending message of an unclaimed conversation,
	// blocking up to timeout. ok=false on timeout is the normal idle path.
	// The claim holds until tx commits or rolls back.
	Dequeue(ctx context.Context, tx pgx.Tx, timeout time.Duration) (*Message, bool, error)

	// CloseConversation retires the conversation and purges its pending
	// messages. Required before a message counts as fully handled.
	CloseConversation(ctx context.Context, tx pgx.Tx, conversationID uuid.UUID) error
}

// Stats is a point-in-time snapshot of queue depth.
type Stats struct {
	OpenConversations int64
	PendingMessages   int64
	OldestEnqueuedAt  *time.Time
}

// Maintenance covers the housekeeping the scheduled job runs outside any
// worker transaction.
type Maintenance interface {
	// PurgeClosedConversations deletes conversations closed before the cutoff
	// and returns how many were removed.
	PurgeClosedConversations(ctx context.Context, closedBefore time.Time) (int64, error)

	Stats(ctx context.Context) (Stats, error)
}
