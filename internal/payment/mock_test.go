package payment

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

func (m *MockRepository) SavePayment(ctx context.Context, p *Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockRepository) GetPaymentByOrderID(ctx context.Context, orderID uuid.UUID) (*Payment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Payment), args.Error(1)
}

func (m *MockRepository) GetCreditEntryForUpdate(ctx context.Context, customerID uuid.UUID) (*CreditEntry, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CreditEntry), args.Error(1)
}

func (m *MockRepository) UpdateCreditEntry(ctx context.Context, entry *CreditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockRepository) ListCreditHistory(ctx context.Context, customerID uuid.UUID) ([]CreditHistory, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]CreditHistory), args.Error(1)
}

func (m *MockRepository) SaveCreditHistory(ctx context.Context, h *CreditHistory) error {
	args := m.Called(ctx, h)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, msg *outbox.Message) error {
	args := m.Called(ctx, msg)
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
