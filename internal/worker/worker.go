package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"origination-engine/internal/audit"
	"origination-engine/internal/config"
	"origination-engine/internal/domain/application"
	"origination-engine/internal/domain/client"
	"origination-engine/internal/domain/decision"
	"origination-engine/internal/infrastructure/monitoring"
	"origination-engine/internal/pkg/apperrors"
	"origination-engine/internal/queue"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const transitionReasonPickedUp = "picked up by decision worker"

type Worker struct {
	id         int
	repo       application.Repository
	clientRepo client.Repository
	q          queue.Queue
	sink       audit.Sink
	cache      application.Cache
	cfg        config.WorkerConfig
	logger     *slog.Logger
}

func newWorker(id int, repo application.Repository, clientRepo client.Repository, q queue.Queue, sink audit.Sink, cache application.Cache, cfg config.WorkerConfig, logger *slog.Logger) *Worker {
	return &Worker{
		id:         id,
		repo:       repo,
		clientRepo: clientRepo,
		q:          q,
		sink:       sink,
		cache:      cache,
		cfg:        cfg,
		logger:     logger.With(slog.String("component", "decisionWorker"), slog.Int("workerID", id)),
	}
}

// run owns one serial dequeue-process-commit loop. Cancellation is honored
// only between iterations; the in-flight transaction runs on a detached
// context so shutdown never interrupts it mid-transaction.
func (w *Worker) run(ctx context.Context) {
	w.logger.InfoContext(ctx, "Worker started")
	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "Worker stopping")
			return
		default:
		}

		if err := w.runOnce(context.WithoutCancel(ctx)); err != nil {
			w.logger.ErrorContext(ctx, "Worker iteration failed, backing off", slog.Any("error", err))
			select {
			case <-ctx.Done():
				w.logger.InfoContext(ctx, "Worker stopping")
				return
			case <-time.After(w.cfg.ErrorBackoff):
			}
		}
	}
}

// runOnce handles at most one message. A returned error is infrastructural
// (queue or store unreachable); business failures never escape it.
func (w *Worker) runOnce(ctx context.Context) error {
	tx, err := w.repo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("could not begin worker transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = w.repo.RollbackTx(ctx, tx)
			panic(p)
		}
	}()

	msg, ok, err := w.q.Dequeue(ctx, tx, w.cfg.DequeueTimeout)
	if err != nil {
		_ = w.repo.RollbackTx(ctx, tx)
		return fmt.Errorf("dequeue failed: %w", err)
	}
	if !ok {
		// idle poll timeout, the normal quiet path
		if err := w.repo.CommitTx(ctx, tx); err != nil {
			return fmt.Errorf("could not commit idle transaction: %w", err)
		}
		return nil
	}

	logCtx := w.logger.With(
		slog.String("conversationID", msg.ConversationID.String()),
		slog.String("typeName", msg.TypeName))

	switch msg.TypeName {
	case queue.TypeConversationEnd:
		if err := w.closeAndCommit(ctx, tx, msg.ConversationID); err != nil {
			return err
		}
		monitoring.RecordWorkerMessage(msg.TypeName, "closed")
		logCtx.InfoContext(ctx, "Conversation end message handled")
		return nil

	case queue.TypeApplicationSubmitted:
		body, decErr := queue.DecodeApplicationSubmittedBody(msg.Body)
		if decErr != nil {
			return w.drop(ctx, tx, msg, decErr)
		}
		if procErr := w.processApplication(ctx, tx, msg, body.ApplicationID); procErr != nil {
			logCtx.ErrorContext(ctx, "Application processing failed, containing", slog.Any("error", procErr))
			_ = w.repo.RollbackTx(ctx, tx)
			w.contain(ctx, body.ApplicationID, msg.ConversationID, procErr)
		}
		return nil

	default:
		return w.drop(ctx, tx, msg, fmt.Errorf("%w: %s", apperrors.ErrUnrecognizedMessage, msg.TypeName))
	}
}

// processApplication decides one application and commits the transaction.
// Any error leaves the transaction for the caller to roll back and contain.
func (w *Worker) processApplication(ctx context.Context, tx pgx.Tx, msg *queue.Message, applicationID uuid.UUID) error {
	start := time.Now()
	logCtx := w.logger.With(slog.String("applicationID", applicationID.String()))

	app, err := w.repo.GetByIDForUpdateInTx(ctx, tx, applicationID)
	if err != nil {
		return fmt.Errorf("%w: could not load application %s: %v", apperrors.ErrProcessing, applicationID, err)
	}

	if app.Status.IsTerminal() {
		// redelivery after a completed attempt, only the close is missing
		logCtx.WarnContext(ctx, "Application already decided, closing conversation",
			slog.String("status", string(app.Status)))
		if err := w.closeAndCommit(ctx, tx, msg.ConversationID); err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrProcessing, err)
		}
		monitoring.RecordWorkerMessage(msg.TypeName, "redelivered")
		return nil
	}

	if app.Status == application.StatusSubmitted {
		if err := w.repo.UpdateStatusInTx(ctx, tx, app.ID, application.StatusSubmitted, application.StatusProcessing, transitionReasonPickedUp); err != nil {
			return fmt.Errorf("%w: could not mark application processing: %v", apperrors.ErrProcessing, err)
		}
		w.sink.AppendTransition(ctx, app.ID, string(application.StatusSubmitted), string(application.StatusProcessing), transitionReasonPickedUp)
	}

	// credit score is read fresh here, not snapshotted at submission
	cl, err := w.clientRepo.GetByIDInTx(ctx, tx, app.ClientID)
	if err != nil {
		return fmt.Errorf("%w: could not load client %s: %v", apperrors.ErrProcessing, app.ClientID, err)
	}

	d := decision.Decide(cl.CreditScore, app.Amount)
	terminal := application.StatusRejected
	if d.Outcome == decision.OutcomeApproved {
		terminal = application.StatusApproved
	}

	if err := w.repo.UpdateStatusInTx(ctx, tx, app.ID, application.StatusProcessing, terminal, d.Reason); err != nil {
		return fmt.Errorf("%w: could not record decision: %v", apperrors.ErrProcessing, err)
	}
	w.sink.AppendTransition(ctx, app.ID, string(application.StatusProcessing), string(terminal), d.Reason)

	if err := w.q.CloseConversation(ctx, tx, msg.ConversationID); err != nil {
		return fmt.Errorf("%w: could not close conversation: %v", apperrors.ErrProcessing, err)
	}
	if err := w.repo.CommitTx(ctx, tx); err != nil {
		return fmt.Errorf("%w: could not commit decision: %v", apperrors.ErrProcessing, err)
	}

	monitoring.RecordDecision(string(terminal), time.Since(start))
	monitoring.RecordWorkerMessage(msg.TypeName, "processed")

	if w.cache != nil {
		now := time.Now()
		app.Status = terminal
		app.DecisionReason = &d.Reason
		app.DecidedAt = &now
		app.UpdatedAt = now
		w.cache.Set(ctx, app)
	}

	logCtx.InfoContext(ctx, "Application decided",
		slog.String("status", string(terminal)),
		slog.String("reason", d.Reason))
	return nil
}

// contain resolves a failed processing attempt so a poisoned application can
// never wedge the queue: force the application to REJECTED, close the
// conversation, commit. It runs on a fresh transaction because the failed
// one is unusable after rollback. If containment itself fails, the rolled
// back message is simply redelivered.
func (w *Worker) contain(ctx context.Context, applicationID, conversationID uuid.UUID, procErr error) {
	logCtx := w.logger.With(
		slog.String("applicationID", applicationID.String()),
		slog.String("conversationID", conversationID.String()))

	reason := fmt.Sprintf("processing error: %v", procErr)

	tx, err := w.repo.BeginTx(ctx)
	if err != nil {
		logCtx.ErrorContext(ctx, "Containment could not begin transaction, message will be redelivered", slog.Any("error", err))
		return
	}

	var oldStatus application.Status
	forced := false

	app, err := w.repo.GetByIDForUpdateInTx(ctx, tx, applicationID)
	switch {
	case err == nil && !app.Status.IsTerminal():
		oldStatus = app.Status
		if err := w.repo.ForceRejectInTx(ctx, tx, applicationID, reason); err != nil {
			logCtx.ErrorContext(ctx, "Containment could not force rejection, message will be redelivered", slog.Any("error", err))
			_ = w.repo.RollbackTx(ctx, tx)
			return
		}
		forced = true
	case err == nil:
		logCtx.WarnContext(ctx, "Containment found application already terminal",
			slog.String("status", string(app.Status)))
	case errors.Is(err, apperrors.ErrNotFound):
		logCtx.WarnContext(ctx, "Containment found no such application, dropping message")
	default:
		logCtx.ErrorContext(ctx, "Containment could not load application, message will be redelivered", slog.Any("error", err))
		_ = w.repo.RollbackTx(ctx, tx)
		return
	}

	if err := w.q.CloseConversation(ctx, tx, conversationID); err != nil {
		logCtx.ErrorContext(ctx, "Containment could not close conversation, message will be redelivered", slog.Any("error", err))
		_ = w.repo.RollbackTx(ctx, tx)
		return
	}
	if err := w.repo.CommitTx(ctx, tx); err != nil {
		logCtx.ErrorContext(ctx, "Containment commit failed, message will be redelivered", slog.Any("error", err))
		return
	}

	monitoring.RecordContainment()
	monitoring.RecordWorkerMessage(queue.TypeApplicationSubmitted, "contained")

	if forced {
		w.sink.AppendTransition(ctx, applicationID, string(oldStatus), string(application.StatusRejected), reason)
	}
	w.sink.AppendEvent(ctx, &applicationID, audit.EventKindProcessingError, "processing failed, containment applied",
		map[string]any{"error": procErr.Error(), "forcedRejection": forced})

	logCtx.WarnContext(ctx, "Processing failure contained", slog.String("reason", reason))
}

// drop discards a message nobody can act on: unknown type or undecodable
// body. Closing the conversation guarantees it is never retried.
func (w *Worker) drop(ctx context.Context, tx pgx.Tx, msg *queue.Message, cause error) error {
	w.logger.WarnContext(ctx, "Dropping unprocessable message",
		slog.String("typeName", msg.TypeName),
		slog.String("conversationID", msg.ConversationID.String()),
		slog.Any("error", cause))

	if err := w.closeAndCommit(ctx, tx, msg.ConversationID); err != nil {
		return err
	}

	monitoring.RecordWorkerMessage(msg.TypeName, "dropped")
	w.sink.AppendEvent(ctx, nil, audit.EventKindMessageDropped, "unprocessable message dropped",
		map[string]any{
			"typeName":       msg.TypeName,
			"conversationId": msg.ConversationID.String(),
			"cause":          cause.Error(),
		})
	return nil
}

func (w *Worker) closeAndCommit(ctx context.Context, tx pgx.Tx, conversationID uuid.UUID) error {
	if err := w.q.CloseConversation(ctx, tx, conversationID); err != nil {
		_ = w.repo.RollbackTx(ctx, tx)
		return fmt.Errorf("could not close conversation %s: %w", conversationID, err)
	}
	if err := w.repo.CommitTx(ctx, tx); err != nil {
		return fmt.Errorf("could not commit conversation close: %w", err)
	}
	return nil
}
