package application

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (_m *MockRepository) CreateInTx(ctx context.Context, tx pgx.Tx, app *Application) error {
	ret := _m.Called(ctx, tx, app)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, pgx.Tx, *Application) error); ok {
		r0 = rf(ctx, tx, app)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

func (_m *MockRepository) GetByID(ctx context.Context, applicationID uuid.UUID) (*Application, error) {
	ret := _m.Called(ctx, applicationID)

	var r0 *Application
	if rf, ok := ret.Get(0).(func(context.Context, uuid.UUID) *Application); ok {
		r0 = rf(ctx, applicationID)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*Application)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, uuid.UUID) error); ok {
		r1 = rf(ctx, applicationID)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

func (_m *MockRepository) GetByIDForUpdateInTx(ctx context.Context, tx pgx.Tx, applicationID uuid.UUID) (*Application, error) {
	ret := _m.Called(ctx, tx, applicationID)

	var r0 *Application
	if rf, ok := ret.Get(0).(func(context.Context, pgx.Tx, uuid.UUID) *Application); ok {
		r0 = rf(ctx, tx, applicationID)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*Application)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, pgx.Tx, uuid.UUID) error); ok {
		r1 = rf(ctx, tx, applicationID)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

func (_m *MockRepository) UpdateStatusInTx(ctx context.Context, tx pgx.Tx, applicationID uuid.UUID, from, to Status, reason string) error {
	ret := _m.Called(ctx, tx, applicationID, from, to, reason)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, pgx.Tx, uuid.UUID, Status, Status, string) error); ok {
		r0 = rf(ctx, tx, applicationID, from, to, reason)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

func (_m *MockRepository) ForceRejectInTx(ctx context.Context, tx pgx.Tx, applicationID uuid.UUID, reason string) error {
	ret := _m.Called(ctx, tx, applicationID, reason)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, pgx.Tx, uuid.UUID, string) error); ok {
		r0 = rf(ctx, tx, applicationID, reason)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

func (_m *MockRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	ret := _m.Called(ctx)

	var r0 pgx.Tx
	if rf, ok := ret.Get(0).(func(context.Context) pgx.Tx); ok {
		r0 = rf(ctx)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(pgx.Tx)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context) error); ok {
		r1 = rf(ctx)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

func (_m *MockRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	ret := _m.Called(ctx, tx)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, pgx.Tx) error); ok {
		r0 = rf(ctx, tx)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

func (_m *MockRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	ret := _m.Called(ctx, tx)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, pgx.Tx) error); ok {
		r0 = rf(ctx, tx)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

var _ Repository = (*MockRepository)(nil)
