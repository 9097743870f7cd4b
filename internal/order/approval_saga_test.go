package order

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"orderflow/internal/message"
	"orderflow/internal/money"
	"orderflow/internal/outbox"
	"orderflow/internal/saga"
)

func approvalResponse(sagaID, orderID uuid.UUID, status message.OrderApprovalStatus, failures ...string) message.RestaurantApprovalResponse {
	return message.RestaurantApprovalResponse{
		ID:              uuid.NewString(),
		SagaID:          sagaID.String(),
		OrderID:         orderID.String(),
		RestaurantID:    uuid.NewString(),
		OrderApproval:   status,
		FailureMessages: failures,
	}
}

func TestApprovalSagaProcess(t *testing.T) {
	database, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	orders := new(MockOrderRepository)
	paymentOutbox := new(MockOutboxRepository)
	approvalOutbox := new(MockOutboxRepository)
	step := NewApprovalSaga(database, orders, paymentOutbox, approvalOutbox)

	sagaID := uuid.New()
	orderID := uuid.New()
	o := &Order{ID: orderID, Status: StatusPaid}
	approvalMsg := outboxMessage(sagaID, string(StatusPaid), saga.StatusProcessing)
	paymentMsg := outboxMessage(sagaID, string(StatusPaid), saga.StatusProcessing)

	approvalOutbox.On("Find", mock.Anything, sagaID, []saga.Status{saga.StatusProcessing}).Return(approvalMsg, nil)
	orders.On("GetByID", mock.Anything, orderID).Return(o, nil)
	orders.On("UpdateStatus", mock.Anything, o).Return(nil)
	approvalOutbox.On("Update", mock.Anything, approvalMsg).Return(nil)
	paymentOutbox.On("Find", mock.Anything, sagaID, []saga.Status{saga.StatusProcessing}).Return(paymentMsg, nil)
	paymentOutbox.On("Update", mock.Anything, paymentMsg).Return(nil)

	dbMock.ExpectBegin()
	dbMock.ExpectCommit()

	require.NoError(t, step.Process(context.Background(), approvalResponse(sagaID, orderID, message.OrderApprovalStatusApproved)))

	assert.Equal(t, StatusApproved, o.Status)
	assert.Equal(t, saga.StatusSucceeded, approvalMsg.SagaStatus)
	assert.Equal(t, saga.StatusSucceeded, paymentMsg.SagaStatus)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestApprovalSagaProcess_AlreadyProcessed(t *testing.T) {
	orders := new(MockOrderRepository)
	approvalOutbox := new(MockOutboxRepository)
	step := NewApprovalSaga(nil, orders, new(MockOutboxRepository), approvalOutbox)

	sagaID := uuid.New()
	approvalOutbox.On("Find", mock.Anything, sagaID, []saga.Status{saga.StatusProcessing}).
		Return(nil, outbox.ErrMessageNotFound)

	err := step.Process(context.Background(), approvalResponse(sagaID, uuid.New(), message.OrderApprovalStatusApproved))
	require.NoError(t, err)
	orders.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestApprovalSagaProcess_MissingPaymentRow(t *testing.T) {
	database, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	orders := new(MockOrderRepository)
	paymentOutbox := new(MockOutboxRepository)
	approvalOutbox := new(MockOutboxRepository)
	step := NewApprovalSaga(database, orders, paymentOutbox, approvalOutbox)

	sagaID := uuid.New()
	orderID := uuid.New()
	o := &Order{ID: orderID, Status: StatusPaid}
	approvalMsg := outboxMessage(sagaID, string(StatusPaid), saga.StatusProcessing)

	approvalOutbox.On("Find", mock.Anything, sagaID, []saga.Status{saga.StatusProcessing}).Return(approvalMsg, nil)
	orders.On("GetByID", mock.Anything, orderID).Return(o, nil)
	orders.On("UpdateStatus", mock.Anything, o).Return(nil)
	approvalOutbox.On("Update", mock.Anything, approvalMsg).Return(nil)
	paymentOutbox.On("Find", mock.Anything, sagaID, []saga.Status{saga.StatusProcessing}).
		Return(nil, outbox.ErrMessageNotFound)

	dbMock.ExpectBegin()
	dbMock.ExpectRollback()

	err = step.Process(context.Background(), approvalResponse(sagaID, orderID, message.OrderApprovalStatusApproved))
	assert.ErrorIs(t, err, ErrSagaInconsistent)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestApprovalSagaRollback(t *testing.T) {
	database, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	orders := new(MockOrderRepository)
	paymentOutbox := new(MockOutboxRepository)
	approvalOutbox := new(MockOutboxRepository)
	step := NewApprovalSaga(database, orders, paymentOutbox, approvalOutbox)

	sagaID := uuid.New()
	orderID := uuid.New()
	o := &Order{ID: orderID, CustomerID: uuid.New(), Status: StatusPaid, Price: money.MustFromString("200.00")}
	approvalMsg := outboxMessage(sagaID, string(StatusPaid), saga.StatusProcessing)

	approvalOutbox.On("Find", mock.Anything, sagaID, []saga.Status{saga.StatusProcessing}).Return(approvalMsg, nil)
	orders.On("GetByID", mock.Anything, orderID).Return(o, nil)
	orders.On("UpdateStatus", mock.Anything, o).Return(nil)
	approvalOutbox.On("Update", mock.Anything, approvalMsg).Return(nil)
	paymentOutbox.On("Insert", mock.Anything, mock.AnythingOfType("*outbox.Message")).Return(nil)

	dbMock.ExpectBegin()
	dbMock.ExpectCommit()

	response := approvalResponse(sagaID, orderID, message.OrderApprovalStatusRejected, "out of stock")
	require.NoError(t, step.Rollback(context.Background(), response))

	assert.Equal(t, StatusCancelling, o.Status)
	assert.Equal(t, []string{"out of stock"}, o.FailureMessages)
	assert.Equal(t, saga.StatusCompensating, approvalMsg.SagaStatus)

	refund := paymentOutbox.Calls[0].Arguments.Get(1).(*outbox.Message)
	assert.Equal(t, sagaID, refund.SagaID)
	assert.Equal(t, saga.StatusCompensating, refund.SagaStatus)
	assert.Equal(t, outbox.StatusStarted, refund.OutboxStatus)
	assert.Contains(t, string(refund.Payload), string(message.PaymentOrderStatusCancelled))
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestApprovalSagaRollback_AlreadyProcessed(t *testing.T) {
	orders := new(MockOrderRepository)
	approvalOutbox := new(MockOutboxRepository)
	step := NewApprovalSaga(nil, orders, new(MockOutboxRepository), approvalOutbox)

	sagaID := uuid.New()
	approvalOutbox.On("Find", mock.Anything, sagaID, []saga.Status{saga.StatusProcessing}).
		Return(nil, outbox.ErrMessageNotFound)

	err := step.Rollback(context.Background(), approvalResponse(sagaID, uuid.New(), message.OrderApprovalStatusRejected))
	require.NoError(t, err)
	orders.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}
