package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"origination-engine/internal/domain/client"
	"origination-engine/internal/pkg/apperrors"
	"origination-engine/internal/queue"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type TxMock struct {
	pgx.Tx
}

type MockClientRepository struct {
	mock.Mock
}

func (_m *MockClientRepository) UpsertByEmailInTx(ctx context.Context, tx pgx.Tx, c *client.Client) (*client.Client, error) {
	ret := _m.Called(ctx, tx, c)

	var r0 *client.Client
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*client.Client)
	}
	return r0, ret.Error(1)
}

func (_m *MockClientRepository) GetByID(ctx context.Context, clientID uuid.UUID) (*client.Client, error) {
	ret := _m.Called(ctx, clientID)

	var r0 *client.Client
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*client.Client)
	}
	return r0, ret.Error(1)
}

func (_m *MockClientRepository) GetByIDInTx(ctx context.Context, tx pgx.Tx, clientID uuid.UUID) (*client.Client, error) {
	ret := _m.Called(ctx, tx, clientID)

	var r0 *client.Client
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*client.Client)
	}
	return r0, ret.Error(1)
}

var _ client.Repository = (*MockClientRepository)(nil)

type MockQueue struct {
	mock.Mock
}

func (_m *MockQueue) Enqueue(ctx context.Context, tx pgx.Tx, msg queue.Message) (uuid.UUID, error) {
	ret := _m.Called(ctx, tx, msg)
	return ret.Get(0).(uuid.UUID), ret.Error(1)
}

func (_m *MockQueue) Dequeue(ctx context.Context, tx pgx.Tx, timeout time.Duration) (*queue.Message, bool, error) {
	ret := _m.Called(ctx, tx, timeout)

	var r0 *queue.Message
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*queue.Message)
	}
	return r0, ret.Bool(1), ret.Error(2)
}

func (_m *MockQueue) CloseConversation(ctx context.Context, tx pgx.Tx, conversationID uuid.UUID) error {
	ret := _m.Called(ctx, tx, conversationID)
	return ret.Error(0)
}

var _ queue.Queue = (*MockQueue)(nil)

type MockAuditSink struct {
	mock.Mock
}

func (_m *MockAuditSink) AppendTransition(ctx context.Context, applicationID uuid.UUID, oldStatus, newStatus, reason string) {
	_m.Called(ctx, applicationID, oldStatus, newStatus, reason)
}

func (_m *MockAuditSink) AppendEvent(ctx context.Context, applicationID *uuid.UUID, kind, message string, details map[string]any) {
	_m.Called(ctx, applicationID, kind, message, details)
}

type MockCache struct {
	mock.Mock
}

func (_m *MockCache) Get(ctx context.Context, applicationID uuid.UUID) (*Application, bool) {
	ret := _m.Called(ctx, applicationID)

	var r0 *Application
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Application)
	}
	return r0, ret.Bool(1)
}

func (_m *MockCache) Set(ctx context.Context, app *Application) {
	_m.Called(ctx, app)
}

func validSubmission() Submission {
	return Submission{
		FirstName:   "Jane",
		LastName:    "Doe",
		Email:       "jane.doe@example.com",
		Phone:       "555-0101",
		CreditScore: 750,
		Amount:      5000,
		TermMonths:  12,
		Purpose:     "car repair",
	}
}

type serviceMocks struct {
	repo       *MockRepository
	clientRepo *MockClientRepository
	q          *MockQueue
	sink       *MockAuditSink
	cache      *MockCache
}

func setupService() (serviceMocks, Service) {
	m := serviceMocks{
		repo:       new(MockRepository),
		clientRepo: new(MockClientRepository),
		q:          new(MockQueue),
		sink:       new(MockAuditSink),
		cache:      new(MockCache),
	}
	svc := NewService(m.repo, m.clientRepo, m.q, m.sink, m.cache, testLogger)
	return m, svc
}

func TestSubmitApplication(t *testing.T) {
	ctx := context.Background()

	t.Run("Success commits client, application and message atomically", func(t *testing.T) {
		m, svc := setupService()
		tx := &TxMock{}
		clientID := uuid.New()
		conversationID := uuid.New()

		m.repo.On("BeginTx", ctx).Return(tx, nil).Once()
		m.clientRepo.On("UpsertByEmailInTx", ctx, tx, mock.MatchedBy(func(c *client.Client) bool {
			return c.Email == "jane.doe@example.com" && c.CreditScore == 750
		})).Return(&client.Client{ID: clientID, Email: "jane.doe@example.com", CreditScore: 750}, nil).Once()
		m.repo.On("CreateInTx", ctx, tx, mock.MatchedBy(func(app *Application) bool {
			return app.ClientID == clientID && app.Status == StatusSubmitted && app.Amount == 5000.0
		})).Return(nil).Once()
		m.q.On("Enqueue", ctx, tx, mock.MatchedBy(func(msg queue.Message) bool {
			return msg.TypeName == queue.TypeApplicationSubmitted && len(msg.Body) > 0
		})).Return(conversationID, nil).Once()
		m.repo.On("CommitTx", ctx, tx).Return(nil).Once()
		m.sink.On("AppendEvent", ctx, mock.Anything, "application.submitted", mock.Anything, mock.Anything).Return().Once()
		m.cache.On("Set", ctx, mock.Anything).Return().Once()

		app, err := svc.SubmitApplication(ctx, validSubmission())

		assert.NoError(t, err)
		assert.NotNil(t, app)
		assert.Equal(t, StatusSubmitted, app.Status)
		assert.Equal(t, clientID, app.ClientID)
		m.repo.AssertExpectations(t)
		m.clientRepo.AssertExpectations(t)
		m.q.AssertExpectations(t)
		m.sink.AssertExpectations(t)
		m.repo.AssertNotCalled(t, "RollbackTx", mock.Anything, mock.Anything)
	})

	t.Run("Out of range credit score fails validation before any write", func(t *testing.T) {
		m, svc := setupService()
		sub := validSubmission()
		sub.CreditScore = 900

		app, err := svc.SubmitApplication(ctx, sub)

		assert.Nil(t, app)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
		m.repo.AssertNotCalled(t, "BeginTx", mock.Anything)
		m.clientRepo.AssertNotCalled(t, "UpsertByEmailInTx", mock.Anything, mock.Anything, mock.Anything)
		m.q.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Non-positive amount fails validation before any write", func(t *testing.T) {
		m, svc := setupService()
		sub := validSubmission()
		sub.Amount = 0

		app, err := svc.SubmitApplication(ctx, sub)

		assert.Nil(t, app)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
		m.repo.AssertNotCalled(t, "BeginTx", mock.Anything)
	})

	t.Run("Non-positive term fails validation before any write", func(t *testing.T) {
		m, svc := setupService()
		sub := validSubmission()
		sub.TermMonths = -1

		app, err := svc.SubmitApplication(ctx, sub)

		assert.Nil(t, app)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
		m.repo.AssertNotCalled(t, "BeginTx", mock.Anything)
	})

	t.Run("Begin transaction failure surfaces as submission failure", func(t *testing.T) {
		m, svc := setupService()

		m.repo.On("BeginTx", ctx).Return(nil, errors.New("pool exhausted")).Once()

		app, err := svc.SubmitApplication(ctx, validSubmission())

		assert.Nil(t, app)
		assert.ErrorIs(t, err, apperrors.ErrSubmissionFailed)
		m.repo.AssertExpectations(t)
	})

	t.Run("Client upsert failure rolls back the whole transaction", func(t *testing.T) {
		m, svc := setupService()
		tx := &TxMock{}

		m.repo.On("BeginTx", ctx).Return(tx, nil).Once()
		m.clientRepo.On("UpsertByEmailInTx", ctx, tx, mock.Anything).
			Return(nil, errors.New("unique violation")).Once()
		m.repo.On("RollbackTx", ctx, tx).Return(nil).Once()

		app, err := svc.SubmitApplication(ctx, validSubmission())

		assert.Nil(t, app)
		assert.ErrorIs(t, err, apperrors.ErrSubmissionFailed)
		m.repo.AssertNotCalled(t, "CommitTx", mock.Anything, mock.Anything)
		m.repo.AssertExpectations(t)
	})

	t.Run("Application insert failure rolls back the whole transaction", func(t *testing.T) {
		m, svc := setupService()
		tx := &TxMock{}
		clientID := uuid.New()

		m.repo.On("BeginTx", ctx).Return(tx, nil).Once()
		m.clientRepo.On("UpsertByEmailInTx", ctx, tx, mock.Anything).
			Return(&client.Client{ID: clientID}, nil).Once()
		m.repo.On("CreateInTx", ctx, tx, mock.Anything).Return(errors.New("insert failed")).Once()
		m.repo.On("RollbackTx", ctx, tx).Return(nil).Once()

		app, err := svc.SubmitApplication(ctx, validSubmission())

		assert.Nil(t, app)
		assert.ErrorIs(t, err, apperrors.ErrSubmissionFailed)
		m.q.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything, mock.Anything)
		m.repo.AssertNotCalled(t, "CommitTx", mock.Anything, mock.Anything)
		m.repo.AssertExpectations(t)
	})

	t.Run("Enqueue failure rolls back the whole transaction", func(t *testing.T) {
		m, svc := setupService()
		tx := &TxMock{}
		clientID := uuid.New()

		m.repo.On("BeginTx", ctx).Return(tx, nil).Once()
		m.clientRepo.On("UpsertByEmailInTx", ctx, tx, mock.Anything).
			Return(&client.Client{ID: clientID}, nil).Once()
		m.repo.On("CreateInTx", ctx, tx, mock.Anything).Return(nil).Once()
		m.q.On("Enqueue", ctx, tx, mock.Anything).Return(uuid.Nil, errors.New("queue insert failed")).Once()
		m.repo.On("RollbackTx", ctx, tx).Return(nil).Once()

		app, err := svc.SubmitApplication(ctx, validSubmission())

		assert.Nil(t, app)
		assert.ErrorIs(t, err, apperrors.ErrSubmissionFailed)
		m.repo.AssertNotCalled(t, "CommitTx", mock.Anything, mock.Anything)
		m.repo.AssertExpectations(t)
	})

	t.Run("Commit failure surfaces as submission failure", func(t *testing.T) {
		m, svc := setupService()
		tx := &TxMock{}
		clientID := uuid.New()

		m.repo.On("BeginTx", ctx).Return(tx, nil).Once()
		m.clientRepo.On("UpsertByEmailInTx", ctx, tx, mock.Anything).
			Return(&client.Client{ID: clientID}, nil).Once()
		m.repo.On("CreateInTx", ctx, tx, mock.Anything).Return(nil).Once()
		m.q.On("Enqueue", ctx, tx, mock.Anything).Return(uuid.New(), nil).Once()
		m.repo.On("CommitTx", ctx, tx).Return(errors.New("commit failed")).Once()
		m.repo.On("RollbackTx", ctx, tx).Return(pgx.ErrTxClosed).Once()

		app, err := svc.SubmitApplication(ctx, validSubmission())

		assert.Nil(t, app)
		assert.ErrorIs(t, err, apperrors.ErrSubmissionFailed)
		m.sink.AssertNotCalled(t, "AppendEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		m.repo.AssertExpectations(t)
	})
}

func TestGetApplication(t *testing.T) {
	ctx := context.Background()
	applicationID := uuid.New()

	t.Run("Cache hit skips the store", func(t *testing.T) {
		m, svc := setupService()
		cached := &Application{ID: applicationID, Status: StatusApproved}

		m.cache.On("Get", ctx, applicationID).Return(cached, true).Once()

		app, err := svc.GetApplication(ctx, applicationID)

		assert.NoError(t, err)
		assert.Equal(t, cached, app)
		m.repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
		m.cache.AssertExpectations(t)
	})

	t.Run("Cache miss reads through and populates", func(t *testing.T) {
		m, svc := setupService()
		stored := &Application{ID: applicationID, Status: StatusProcessing}

		m.cache.On("Get", ctx, applicationID).Return(nil, false).Once()
		m.repo.On("GetByID", ctx, applicationID).Return(stored, nil).Once()
		m.cache.On("Set", ctx, stored).Return().Once()

		app, err := svc.GetApplication(ctx, applicationID)

		assert.NoError(t, err)
		assert.Equal(t, stored, app)
		m.repo.AssertExpectations(t)
		m.cache.AssertExpectations(t)
	})

	t.Run("Not found maps to sentinel", func(t *testing.T) {
		m, svc := setupService()

		m.cache.On("Get", ctx, applicationID).Return(nil, false).Once()
		m.repo.On("GetByID", ctx, applicationID).Return(nil, apperrors.ErrNotFound).Once()

		app, err := svc.GetApplication(ctx, applicationID)

		assert.Nil(t, app)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("Works without a cache", func(t *testing.T) {
		repo := new(MockRepository)
		clientRepo := new(MockClientRepository)
		q := new(MockQueue)
		sink := new(MockAuditSink)
		svc := NewService(repo, clientRepo, q, sink, nil, testLogger)

		stored := &Application{ID: applicationID, Status: StatusSubmitted}
		repo.On("GetByID", ctx, applicationID).Return(stored, nil).Once()

		app, err := svc.GetApplication(ctx, applicationID)

		assert.NoError(t, err)
		assert.Equal(t, stored, app)
		repo.AssertExpectations(t)
	})
}
