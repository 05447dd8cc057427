package client

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (_m *MockRepository) UpsertByEmailInTx(ctx context.Context, tx pgx.Tx, c *Client) (*Client, error) {
	ret := _m.Called(ctx, tx, c)

	var r0 *Client
	if rf, ok := ret.Get(0).(func(context.Context, pgx.Tx, *Client) *Client); ok {
		r0 = rf(ctx, tx, c)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*Client)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, pgx.Tx, *Client) error); ok {
		r1 = rf(ctx, tx, c)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

func (_m *MockRepository) GetByID(ctx context.Context, clientID uuid.UUID) (*Client, error) {
	ret := _m.Called(ctx, clientID)

	var r0 *Client
	if rf, ok := ret.Get(0).(func(context.Context, uuid.UUID) *Client); ok {
		r0 = rf(ctx, clientID)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*Client)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, uuid.UUID) error); ok {
		r1 = rf(ctx, clientID)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

func (_m *MockRepository) GetByIDInTx(ctx context.Context, tx pgx.Tx, clientID uuid.UUID) (*Client, error) {
	ret := _m.Called(ctx, tx, clientID)

	var r0 *Client
	if rf, ok := ret.Get(0).(func(context.Context, pgx.Tx, uuid.UUID) *Client); ok {
		r0 = rf(ctx, tx, clientID)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*Client)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, pgx.Tx, uuid.UUID) error); ok {
		r1 = rf(ctx, tx, clientID)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

var _ Repository = (*MockRepository)(nil)
