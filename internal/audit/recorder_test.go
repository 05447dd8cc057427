package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type MockStore struct {
	mock.Mock
}

func (_m *MockStore) AppendTransition(ctx context.Context, t Transition) error {
	ret := _m.Called(ctx, t)
	return ret.Error(0)
}

func (_m *MockStore) AppendEvent(ctx context.Context, e Event) error {
	ret := _m.Called(ctx, e)
	return ret.Error(0)
}

var _ Store = (*MockStore)(nil)

type MockPublisher struct {
	mock.Mock
}

func (_m *MockPublisher) PublishTransitionRecorded(ctx context.Context, t Transition) error {
	ret := _m.Called(ctx, t)
	return ret.Error(0)
}

func (_m *MockPublisher) PublishEventRecorded(ctx context.Context, e Event) error {
	ret := _m.Called(ctx, e)
	return ret.Error(0)
}

var _ Publisher = (*MockPublisher)(nil)

func TestNewRecorderPanicsOnNilStore(t *testing.T) {
	assert.Panics(t, func() {
		NewRecorder(nil, nil, testLogger)
	})
}

func TestAppendTransitionStoresAndPublishes(t *testing.T) {
	ctx := context.Background()
	store := new(MockStore)
	publisher := new(MockPublisher)
	recorder := NewRecorder(store, publisher, testLogger)
	appID := uuid.New()

	store.On("AppendTransition", ctx, mock.MatchedBy(func(tr Transition) bool {
		return tr.ApplicationID == appID &&
			tr.OldStatus == "SUBMITTED" &&
			tr.NewStatus == "PROCESSING" &&
			tr.Reason == "picked up" &&
			!tr.Timestamp.IsZero()
	})).Return(nil).Once()
	publisher.On("PublishTransitionRecorded", ctx, mock.Anything).Return(nil).Once()

	recorder.AppendTransition(ctx, appID, "SUBMITTED", "PROCESSING", "picked up")

	store.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestAppendTransitionSkipsPublishOnStoreFailure(t *testing.T) {
	ctx := context.Background()
	store := new(MockStore)
	publisher := new(MockPublisher)
	recorder := NewRecorder(store, publisher, testLogger)

	store.On("AppendTransition", ctx, mock.Anything).Return(errors.New("connection refused")).Once()

	recorder.AppendTransition(ctx, uuid.New(), "PROCESSING", "APPROVED", "within thresholds")

	store.AssertExpectations(t)
	publisher.AssertNotCalled(t, "PublishTransitionRecorded", mock.Anything, mock.Anything)
}

func TestAppendTransitionSwallowsPublishFailure(t *testing.T) {
	ctx := context.Background()
	store := new(MockStore)
	publisher := new(MockPublisher)
	recorder := NewRecorder(store, publisher, testLogger)

	store.On("AppendTransition", ctx, mock.Anything).Return(nil).Once()
	publisher.On("PublishTransitionRecorded", ctx, mock.Anything).Return(errors.New("channel closed")).Once()

	assert.NotPanics(t, func() {
		recorder.AppendTransition(ctx, uuid.New(), "PROCESSING", "REJECTED", "score too low")
	})

	store.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestAppendTransitionWorksWithoutPublisher(t *testing.T) {
	ctx := context.Background()
	store := new(MockStore)
	recorder := NewRecorder(store, nil, testLogger)

	store.On("AppendTransition", ctx, mock.Anything).Return(nil).Once()

	assert.NotPanics(t, func() {
		recorder.AppendTransition(ctx, uuid.New(), "SUBMITTED", "PROCESSING", "picked up")
	})

	store.AssertExpectations(t)
}

func TestAppendEventStoresAndPublishes(t *testing.T) {
	ctx := context.Background()
	store := new(MockStore)
	publisher := new(MockPublisher)
	recorder := NewRecorder(store, publisher, testLogger)
	appID := uuid.New()
	details := map[string]any{"error": "read timeout", "forcedRejection": true}

	store.On("AppendEvent", ctx, mock.MatchedBy(func(e Event) bool {
		return e.ApplicationID != nil && *e.ApplicationID == appID &&
			e.Kind == EventKindProcessingError &&
			e.Message == "processing failed" &&
			e.Details["error"] == "read timeout" &&
			!e.Timestamp.IsZero()
	})).Return(nil).Once()
	publisher.On("PublishEventRecorded", ctx, mock.Anything).Return(nil).Once()

	recorder.AppendEvent(ctx, &appID, EventKindProcessingError, "processing failed", details)

	store.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestAppendEventAcceptsNilApplicationID(t *testing.T) {
	ctx := context.Background()
	store := new(MockStore)
	recorder := NewRecorder(store, nil, testLogger)

	store.On("AppendEvent", ctx, mock.MatchedBy(func(e Event) bool {
		return e.ApplicationID == nil && e.Kind == EventKindMessageDropped
	})).Return(nil).Once()

	assert.NotPanics(t, func() {
		recorder.AppendEvent(ctx, nil, EventKindMessageDropped, "unprocessable message dropped",
			map[string]any{"typeName": "billing.invoice.created"})
	})

	store.AssertExpectations(t)
}

func TestAppendEventSkipsPublishOnStoreFailure(t *testing.T) {
	ctx := context.Background()
	store := new(MockStore)
	publisher := new(MockPublisher)
	recorder := NewRecorder(store, publisher, testLogger)
	appID := uuid.New()

	store.On("AppendEvent", ctx, mock.Anything).Return(errors.New("disk full")).Once()

	recorder.AppendEvent(ctx, &appID, EventKindProcessingError, "processing failed", nil)

	store.AssertExpectations(t)
	publisher.AssertNotCalled(t, "PublishEventRecorded", mock.Anything, mock.Anything)
}
