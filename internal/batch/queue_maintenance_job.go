package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"origination-engine/internal/config"
	"origination-engine/internal/infrastructure/monitoring"
	"origination-engine/internal/queue"
)

// QueueMaintenanceJob purges closed conversations past their retention
// window and refreshes the queue depth gauges. It runs on a schedule and
// never touches open conversations, so it is safe alongside live workers.
type QueueMaintenanceJob struct {
	maintenance queue.Maintenance
	retention   time.Duration
	staleAge    time.Duration
	logger      *slog.Logger
}

func NewQueueMaintenanceJob(maintenance queue.Maintenance, cfg config.BatchConfig, logger *slog.Logger) *QueueMaintenanceJob {
	if maintenance == nil || logger == nil {
		panic("QueueMaintenanceJob dependencies cannot be nil")
	}
	return &QueueMaintenanceJob{
		maintenance: maintenance,
		retention:   cfg.ClosedRetention,
		staleAge:    cfg.StaleAge,
		logger:      logger.With("job", "QueueMaintenance"),
	}
}

func (j *QueueMaintenanceJob) Run(ctx context.Context) error {
	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting queue maintenance job.")

	cutoff := startTime.Add(-j.retention)
	purged, err := j.maintenance.PurgeClosedConversations(ctx, cutoff)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to purge closed conversations, aborting job.", slog.Any("error", err))
		return fmt.Errorf("cannot run job, failed to purge closed conversations: %w", err)
	}

	stats, err := j.maintenance.Stats(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to read queue statistics.", slog.Any("error", err))
		return fmt.Errorf("failed to read queue statistics: %w", err)
	}

	monitoring.SetOpenConversations(stats.OpenConversations)

	var oldestAge time.Duration
	if stats.OldestEnqueuedAt != nil {
		oldestAge = time.Since(*stats.OldestEnqueuedAt)
	}
	monitoring.SetOldestPendingAge(oldestAge)

	if j.staleAge > 0 && oldestAge > j.staleAge {
		j.logger.WarnContext(ctx, "Oldest pending message exceeds the stale age threshold, workers may be stuck.",
			slog.Duration("oldest_pending_age", oldestAge),
			slog.Duration("stale_age_threshold", j.staleAge),
		)
	}

	j.logger.InfoContext(ctx, "Queue maintenance job finished.",
		slog.Duration("duration", time.Since(startTime)),
		slog.Int64("conversations_purged", purged),
		slog.Int64("open_conversations", stats.OpenConversations),
		slog.Int64("pending_messages", stats.PendingMessages),
		slog.Duration("oldest_pending_age", oldestAge),
	)
	return nil
}
