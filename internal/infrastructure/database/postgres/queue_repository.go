package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"origination-engine/internal/infrastructure/monitoring"
	"origination-engine/internal/pkg/apperrors"
	"origination-engine/internal/queue"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const defaultPollInterval = 100 * time.Millisecond

// QueueRepository stores conversations and their messages in two tables.
// Claiming a message locks its conversation row with SKIP LOCKED, so at most
// one worker holds a conversation at a time and everybody else moves on to
// the next one. The claimed message is deleted inside the caller's
// transaction: a rollback restores it, which is exactly the redelivery
// behavior consumers rely on.
type QueueRepository struct {
	db           DBPool
	pollInterval time.Duration
	logger       *slog.Logger
}

var _ queue.Queue = (*QueueRepository)(nil)

var _ queue.Maintenance = (*QueueRepository)(nil)

func NewQueueRepository(db DBPool, pollInterval time.Duration, logger *slog.Logger) *QueueRepository {
	if db == nil {
		panic("DBPool cannot be nil for QueueRepository")
	}
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &QueueRepository{
		db:           db,
		pollInterval: pollInterval,
		logger:       logger.With("component", "QueueRepository"),
	}
}

func (r *QueueRepository) Enqueue(ctx context.Context, tx pgx.Tx, msg queue.Message) (uuid.UUID, error) {
	conversationID := msg.ConversationID
	if conversationID == uuid.Nil {
		conversationID = uuid.New()
	}

	conversationSQL := `
        INSERT INTO queue_conversations (id, created_at)
        VALUES ($1, NOW())
        ON CONFLICT (id) DO NOTHING`

	if _, err := tx.Exec(ctx, conversationSQL, conversationID); err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert conversation", slog.Any("error", err))
		return uuid.Nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	messageSQL := `
        INSERT INTO queue_messages (conversation_id, type_name, body, enqueued_at)
        VALUES ($1, $2, $3, NOW())`

	if _, err := tx.Exec(ctx, messageSQL, conversationID, msg.TypeName, msg.Body); err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert message", slog.Any("error", err))
		return uuid.Nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	monitoring.RecordEnqueue()
	r.logger.InfoContext(ctx, "Message enqueued",
		slog.String("conversationID", conversationID.String()),
		slog.String("typeName", msg.TypeName))
	return conversationID, nil
}

func (r *QueueRepository) Dequeue(ctx context.Context, tx pgx.Tx, timeout time.Duration) (*queue.Message, bool, error) {
	deadline := time.Now().Add(timeout)

	for {
		msg, ok, err := r.claimNext(ctx, tx)
		if err != nil {
			return nil, false, err
		}
		if ok {
			monitoring.RecordDequeue()
			return msg, true, nil
		}

		if time.Now().After(deadline) {
			return nil, false, nil
		}

		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case <-time.After(r.pollInterval):
		}
	}
}

// claimNext grabs the oldest message whose conversation nobody else holds.
// Each poll runs on a fresh statement snapshot, so messages committed after
// the caller's transaction began are still seen.
func (r *QueueRepository) claimNext(ctx context.Context, tx pgx.Tx) (*queue.Message, bool, error) {
	claimSQL := `
        SELECT m.id, m.conversation_id, m.type_name, m.body, m.enqueued_at
        FROM queue_messages m
        JOIN queue_conversations c ON c.id = m.conversation_id
        WHERE c.closed_at IS NULL
        ORDER BY m.enqueued_at ASC, m.id ASC
        LIMIT 1
        FOR UPDATE OF c SKIP LOCKED`

	var (
		messageID int64
		msg       queue.Message
	)
	err := tx.QueryRow(ctx, claimSQL).Scan(
		&messageID, &msg.ConversationID, &msg.TypeName, &msg.Body, &msg.EnqueuedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		r.logger.ErrorContext(ctx, "Failed to claim next message", slog.Any("error", err))
		return nil, false, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	deleteSQL := `DELETE FROM queue_messages WHERE id = $1`

	cmdTag, err := tx.Exec(ctx, deleteSQL, messageID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete claimed message", slog.Any("error", err))
		return nil, false, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() == 0 {
		// lost a race on the message row, the next poll sees a fresh snapshot
		return nil, false, nil
	}

	return &msg, true, nil
}

func (r *QueueRepository) CloseConversation(ctx context.Context, tx pgx.Tx, conversationID uuid.UUID) error {
	purgeSQL := `DELETE FROM queue_messages WHERE conversation_id = $1`

	if _, err := tx.Exec(ctx, purgeSQL, conversationID); err != nil {
		r.logger.ErrorContext(ctx, "Failed to purge conversation messages", slog.Any("error", err))
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	closeSQL := `
        UPDATE queue_conversations
        SET closed_at = NOW()
        WHERE id = $1 AND closed_at IS NULL`

	cmdTag, err := tx.Exec(ctx, closeSQL, conversationID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to close conversation", slog.Any("error", err))
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	if cmdTag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "Conversation already closed or missing",
			slog.String("conversationID", conversationID.String()))
		return nil
	}

	r.logger.InfoContext(ctx, "Conversation closed", slog.String("conversationID", conversationID.String()))
	return nil
}

func (r *QueueRepository) PurgeClosedConversations(ctx context.Context, closedBefore time.Time) (int64, error) {
	query := `
        DELETE FROM queue_conversations
        WHERE closed_at IS NOT NULL AND closed_at < $1`

	status := "success"
	startTime := time.Now()

	cmdTag, err := r.db.Exec(ctx, query, closedBefore)

	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("PurgeClosedConversations", status, time.Since(startTime))

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to purge closed conversations", slog.Any("error", err))
		return 0, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	return cmdTag.RowsAffected(), nil
}

func (r *QueueRepository) Stats(ctx context.Context) (queue.Stats, error) {
	query := `
        SELECT
            (SELECT COUNT(*) FROM queue_conversations WHERE closed_at IS NULL),
            (SELECT COUNT(*) FROM queue_messages),
            (SELECT MIN(m.enqueued_at)
             FROM queue_messages m
             JOIN queue_conversations c ON c.id = m.conversation_id
             WHERE c.closed_at IS NULL)`

	var stats queue.Stats
	err := r.db.QueryRow(ctx, query).Scan(
		&stats.OpenConversations, &stats.PendingMessages, &stats.OldestEnqueuedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to collect queue stats", slog.Any("error", err))
		return queue.Stats{}, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	return stats, nil
}
