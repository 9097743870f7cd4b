package order

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"orderflow/internal/outbox"
	"orderflow/internal/saga"
)

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) WithTx(tx *sql.Tx) Repository {
	return m
}

func (m *MockOrderRepository) Create(ctx context.Context, o *Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockOrderRepository) GetByTrackingID(ctx context.Context, trackingID uuid.UUID) (*Order, error) {
	args := m.Called(ctx, trackingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, o *Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) CustomerExists(ctx context.Context, customerID uuid.UUID) (bool, error) {
	args := m.Called(ctx, customerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) FindRestaurantProducts(ctx context.Context, restaurantID uuid.UUID, productIDs []uuid.UUID) ([]RestaurantProduct, error) {
	args := m.Called(ctx, restaurantID, productIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]RestaurantProduct), args.Error(1)
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
