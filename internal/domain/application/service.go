package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"origination-engine/internal/audit"
	"origination-engine/internal/domain/client"
	"origination-engine/internal/infrastructure/monitoring"
	"origination-engine/internal/pkg/apperrors"
	"origination-engine/internal/queue"

	"github.com/google/uuid"
)

// Submission carries everything the producer-facing submit call accepts.
type Submission struct {
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	CreditScore int
	Amount      float64
	TermMonths  int
	Purpose     string
}

type Service interface {
	// SubmitApplication validates the submission, then atomically upserts the
	// client, inserts the application as SUBMITTED and enqueues one message
	// for the decision workers. Either all three land or none do.
	SubmitApplication(ctx context.Context, sub Submission) (*Application, error)

	GetApplication(ctx context.Context, applicationID uuid.UUID) (*Application, error)
}

// Cache is an optional read-through for application lookups. Misses and
// failures fall back to the store.
type Cache interface {
	Get(ctx context.Context, applicationID uuid.UUID) (*Application, bool)
	Set(ctx context.Context, app *Application)
}

var _ Service = (*service)(nil)

type service struct {
	repo       Repository
	clientRepo client.Repository
	q          queue.Queue
	auditSink  audit.Sink
	cache      Cache
	logger     *slog.Logger
}

func NewService(repo Repository, clientRepo client.Repository, q queue.Queue, auditSink audit.Sink, cache Cache, logger *slog.Logger) Service {
	if repo == nil {
		panic("application repository cannot be nil")
	}
	if clientRepo == nil {
		panic("client repository cannot be nil")
	}
	if q == nil {
		panic("queue cannot be nil")
	}
	if auditSink == nil {
		panic("audit sink cannot be nil")
	}
	return &service{
		repo:       repo,
		clientRepo: clientRepo,
		q:          q,
		auditSink:  auditSink,
		cache:      cache,
		logger:     logger.With(slog.String("component", "applicationService")),
	}
}

func (s *service) SubmitApplication(ctx context.Context, sub Submission) (app *Application, err error) {
	s.logger.InfoContext(ctx, "Submitting loan application", slog.Float64("amount", sub.Amount))

	c, err := client.NewClient(sub.FirstName, sub.LastName, sub.Email, sub.Phone, sub.CreditScore)
	if err != nil {
		s.logger.WarnContext(ctx, "Submission rejected by validation", slog.Any("error", err))
		monitoring.RecordSubmission("validation_failed")
		return nil, err
	}
	if sub.Amount <= 0 {
		monitoring.RecordSubmission("validation_failed")
		return nil, apperrors.NewValidationError("amount", "must be greater than zero")
	}
	if sub.TermMonths <= 0 {
		monitoring.RecordSubmission("validation_failed")
		return nil, apperrors.NewValidationError("termMonths", "must be greater than zero")
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin intake transaction", slog.Any("error", err))
		monitoring.RecordSubmission("failed")
		return nil, fmt.Errorf("%w: could not begin transaction: %v", apperrors.ErrSubmissionFailed, err)
	}

	defer func() {
		if p := recover(); p != nil {
			s.logger.ErrorContext(ctx, "Panic during application submission", slog.Any("error", p))
			_ = s.repo.RollbackTx(ctx, tx)
			panic(p)
		} else if err != nil {
			s.logger.ErrorContext(ctx, "Rolling back intake transaction", slog.Any("error", err))
			_ = s.repo.RollbackTx(ctx, tx)
		}
	}()

	persistedClient, err := s.clientRepo.UpsertByEmailInTx(ctx, tx, c)
	if err != nil {
		monitoring.RecordSubmission("failed")
		return nil, fmt.Errorf("%w: could not upsert client: %v", apperrors.ErrSubmissionFailed, err)
	}

	app, err = NewApplication(persistedClient.ID, sub.Amount, sub.TermMonths, sub.Purpose)
	if err != nil {
		monitoring.RecordSubmission("validation_failed")
		return nil, err
	}

	if err = s.repo.CreateInTx(ctx, tx, app); err != nil {
		monitoring.RecordSubmission("failed")
		return nil, fmt.Errorf("%w: could not create application: %v", apperrors.ErrSubmissionFailed, err)
	}

	msg, err := queue.NewApplicationSubmittedMessage(app.ID)
	if err != nil {
		monitoring.RecordSubmission("failed")
		return nil, fmt.Errorf("%w: could not build queue message: %v", apperrors.ErrSubmissionFailed, err)
	}

	conversationID, err := s.q.Enqueue(ctx, tx, msg)
	if err != nil {
		monitoring.RecordSubmission("failed")
		return nil, fmt.Errorf("%w: could not enqueue application message: %v", apperrors.ErrSubmissionFailed, err)
	}

	if err = s.repo.CommitTx(ctx, tx); err != nil {
		monitoring.RecordSubmission("failed")
		return nil, fmt.Errorf("%w: could not commit transaction: %v", apperrors.ErrSubmissionFailed, err)
	}

	monitoring.RecordSubmission("accepted")
	s.auditSink.AppendEvent(ctx, &app.ID, "application.submitted", "application accepted for processing",
		map[string]any{"conversationId": conversationID.String()})

	if s.cache != nil {
		s.cache.Set(ctx, app)
	}

	s.logger.InfoContext(ctx, "Application submitted",
		slog.String("applicationID", app.ID.String()),
		slog.String("clientID", persistedClient.ID.String()),
		slog.String("conversationID", conversationID.String()))
	return app, nil
}

func (s *service) GetApplication(ctx context.Context, applicationID uuid.UUID) (*Application, error) {
	logCtx := s.logger.With(slog.String("applicationID", applicationID.String()))

	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, applicationID); ok {
			logCtx.DebugContext(ctx, "Application served from cache")
			return cached, nil
		}
	}

	app, err := s.repo.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logCtx.WarnContext(ctx, "Application not found")
			return nil, apperrors.ErrNotFound
		}
		logCtx.ErrorContext(ctx, "Repository error fetching application", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get application %s: %w", applicationID, err)
	}

	if s.cache != nil {
		s.cache.Set(ctx, app)
	}
	return app, nil
}
