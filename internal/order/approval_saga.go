package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"orderflow/internal/db"
	"orderflow/internal/logger"
	"orderflow/internal/message"
	"orderflow/internal/outbox"
	"orderflow/internal/saga"
)

// ApprovalSaga is the last hop of the order flow. Process reacts to a
// restaurant approval by finishing the saga; Rollback reacts to a
// rejection by starting the refund compensation.
type ApprovalSaga struct {
	database       *sql.DB
	orders         Repository
	paymentOutbox  outbox.Repository
	approvalOutbox outbox.Repository
}

var _ saga.Step[message.RestaurantApprovalResponse] = (*ApprovalSaga)(nil)

func NewApprovalSaga(database *sql.DB, orders Repository, paymentOutbox, approvalOutbox outbox.Repository) *ApprovalSaga {
	return &ApprovalSaga{
		database:       database,
		orders:         orders,
		paymentOutbox:  paymentOutbox,
		approvalOutbox: approvalOutbox,
	}
}

func (s *ApprovalSaga) Process(ctx context.Context, response message.RestaurantApprovalResponse) error {
	sagaID, err := uuid.Parse(response.SagaID)
	if err != nil {
		return fmt.Errorf("parse saga id %q: %w", response.SagaID, err)
	}
	orderID, err := uuid.Parse(response.OrderID)
	if err != nil {
		return fmt.Errorf("parse order id %q: %w", response.OrderID, err)
	}

	msg, err := s.approvalOutbox.Find(ctx, sagaID, saga.StatusProcessing)
	if err != nil {
		if errors.Is(err, outbox.ErrMessageNotFound) {
			logger.FromCtx(ctx).Info("approval response already processed",
				zap.String("order_id", response.OrderID))
			return nil
		}
		return err
	}

	return db.WithinTx(ctx, s.database, func(tx *sql.Tx) error {
		orders := s.orders.WithTx(tx)
		o, err := orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := o.Approve(); err != nil {
			return err
		}
		if err := orders.UpdateStatus(ctx, o); err != nil {
			return err
		}

		sagaStatus := sagaStatusFor(o.Status)
		msg.Advance(string(o.Status), sagaStatus)
		if err := s.approvalOutbox.WithTx(tx).Update(ctx, msg); err != nil {
			return err
		}

		// The payment row was parked in PROCESSING by the payment hop. Its
		// absence here means the saga bookkeeping is corrupted.
		paymentOutbox := s.paymentOutbox.WithTx(tx)
		payment, err := paymentOutbox.Find(ctx, sagaID, saga.StatusProcessing)
		if err != nil {
			if errors.Is(err, outbox.ErrMessageNotFound) {
				return fmt.Errorf("%w: payment outbox row for saga %s", ErrSagaInconsistent, sagaID)
			}
			return err
		}
		payment.Advance(string(o.Status), sagaStatus)
		if err := paymentOutbox.Update(ctx, payment); err != nil {
			return err
		}

		logger.FromCtx(ctx).Info("order approved", zap.String("order_id", o.ID.String()))
		return nil
	})
}

func (s *ApprovalSaga) Rollback(ctx context.Context, response message.RestaurantApprovalResponse) error {
	sagaID, err := uuid.Parse(response.SagaID)
	if err != nil {
		return fmt.Errorf("parse saga id %q: %w", response.SagaID, err)
	}
	orderID, err := uuid.Parse(response.OrderID)
	if err != nil {
		return fmt.Errorf("parse order id %q: %w", response.OrderID, err)
	}

	msg, err := s.approvalOutbox.Find(ctx, sagaID, saga.StatusProcessing)
	if err != nil {
		if errors.Is(err, outbox.ErrMessageNotFound) {
			logger.FromCtx(ctx).Info("approval rollback already processed",
				zap.String("order_id", response.OrderID))
			return nil
		}
		return err
	}

	return db.WithinTx(ctx, s.database, func(tx *sql.Tx) error {
		orders := s.orders.WithTx(tx)
		o, err := orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := o.InitCancel(response.FailureMessages); err != nil {
			return err
		}
		if err := orders.UpdateStatus(ctx, o); err != nil {
			return err
		}

		sagaStatus := sagaStatusFor(o.Status)
		msg.Advance(string(o.Status), sagaStatus)
		if err := s.approvalOutbox.WithTx(tx).Update(ctx, msg); err != nil {
			return err
		}

		refund, err := refundMessage(o, sagaID, sagaStatus)
		if err != nil {
			return err
		}
		if err := s.paymentOutbox.WithTx(tx).Insert(ctx, refund); err != nil {
			return err
		}

		logger.FromCtx(ctx).Info("order rejected by restaurant, refund requested",
			zap.String("order_id", o.ID.String()),
			zap.Strings("failure_messages", response.FailureMessages))
		return nil
	})
}

// refundMessage enqueues a cancellation request for the payment service.
// The row starts in the COMPENSATING slot so the payment outbox scheduler
// picks it up alongside fresh STARTED rows.
func refundMessage(o *Order, sagaID uuid.UUID, sagaStatus saga.Status) (*outbox.Message, error) {
	payload, err := json.Marshal(message.OrderPaymentEventPayload{
		OrderID:            o.ID.String(),
		CustomerID:         o.CustomerID.String(),
		Price:              o.Price,
		CreatedAt:          time.Now().UTC(),
		PaymentOrderStatus: message.PaymentOrderStatusCancelled,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal payment cancel event: %w", err)
	}
	return outbox.NewMessage(saga.OrderSagaName, sagaID, payload,
		string(o.Status), sagaStatus, outbox.StatusStarted), nil
}
