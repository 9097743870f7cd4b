package restaurant

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"orderflow/internal/outbox"
	"orderflow/internal/saga"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) WithTx(tx *sql.Tx) Repository {
	return m
}

func (m *MockRepository) FindRestaurant(ctx context.Context, restaurantID uuid.UUID, productIDs []uuid.UUID) (*Restaurant, error) {
	args := m.Called(ctx, restaurantID, productIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Restaurant), args.Error(1)
}

func (m *MockRepository) SaveOrderApproval(ctx context.Context, approval *OrderApproval) error {
	args := m.Called(ctx, approval)
	return args.Error(0)
}

type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) WithTx(tx *sql.Tx) outbox.Repository {
	return m
}

func (m *MockOutboxRepository) Find(ctx context.Context, sagaID uuid.UUID, sagaStatuses ...saga.Status) (*outbox.Message, error) {
	args := m.Called(ctx, sagaID, sagaStatuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepository) FindCompletedByDomainStatus(ctx context.Context, sagaID uuid.UUID, domainStatus string) (*outbox.Message, error) {
	args := m.Called(ctx, sagaID, domainStatus)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepository) FindCompleted(ctx context.Context, sagaID uuid.UUID) (*outbox.Message, error) {
	args := m.Called(ctx, sagaID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepository) FindReady(ctx context.Context, limit int, sagaStatuses ...saga.Status) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit, sagaStatuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepository) Insert(ctx context.Context, msg *outbox.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockOutboxRepository) Update(ctx context.Context, msg *outbox.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
