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

// PaymentSaga is the first hop of the order flow. Process reacts to a
// completed payment by marking the order paid and enqueueing the
// restaurant approval request; Rollback reacts to a failed or cancelled
// payment by cancelling the order.
type PaymentSaga struct {
	database       *sql.DB
	orders         Repository
	paymentOutbox  outbox.Repository
	approvalOutbox outbox.Repository
}

var _ saga.Step[message.PaymentResponse] = (*PaymentSaga)(nil)

func NewPaymentSaga(database *sql.DB, orders Repository, paymentOutbox, approvalOutbox outbox.Repository) *PaymentSaga {
	return &PaymentSaga{
		database:       database,
		orders:         orders,
		paymentOutbox:  paymentOutbox,
		approvalOutbox: approvalOutbox,
	}
}

func (s *PaymentSaga) Process(ctx context.Context, response message.PaymentResponse) error {
	sagaID, err := uuid.Parse(response.SagaID)
	if err != nil {
		return fmt.Errorf("parse saga id %q: %w", response.SagaID, err)
	}

	// Redelivery gate: the row only sits in STARTED until the first
	// successful processing moves it on.
	orderID, err := uuid.Parse(response.OrderID)
	if err != nil {
		return fmt.Errorf("parse order id %q: %w", response.OrderID, err)
	}

	msg, err := s.paymentOutbox.Find(ctx, sagaID, saga.StatusStarted)
	if err != nil {
		if errors.Is(err, outbox.ErrMessageNotFound) {
			logger.FromCtx(ctx).Info("payment response already processed",
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
		if err := o.Pay(); err != nil {
			return err
		}
		if err := orders.UpdateStatus(ctx, o); err != nil {
			return err
		}

		sagaStatus := sagaStatusFor(o.Status)
		msg.Advance(string(o.Status), sagaStatus)
		if err := s.paymentOutbox.WithTx(tx).Update(ctx, msg); err != nil {
			return err
		}

		approval, err := approvalMessage(o, sagaID, sagaStatus)
		if err != nil {
			return err
		}
		if err := s.approvalOutbox.WithTx(tx).Insert(ctx, approval); err != nil {
			return err
		}

		logger.FromCtx(ctx).Info("order paid", zap.String("order_id", o.ID.String()))
		return nil
	})
}

func (s *PaymentSaga) Rollback(ctx context.Context, response message.PaymentResponse) error {
	sagaID, err := uuid.Parse(response.SagaID)
	if err != nil {
		return fmt.Errorf("parse saga id %q: %w", response.SagaID, err)
	}

	orderID, err := uuid.Parse(response.OrderID)
	if err != nil {
		return fmt.Errorf("parse order id %q: %w", response.OrderID, err)
	}

	msg, err := s.paymentOutbox.Find(ctx, sagaID, rollbackSagaStatuses(response.PaymentStatus)...)
	if err != nil {
		if errors.Is(err, outbox.ErrMessageNotFound) {
			logger.FromCtx(ctx).Info("payment rollback already processed",
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
		if err := o.Cancel(response.FailureMessages); err != nil {
			return err
		}
		if err := orders.UpdateStatus(ctx, o); err != nil {
			return err
		}

		sagaStatus := sagaStatusFor(o.Status)
		msg.Advance(string(o.Status), sagaStatus)
		if err := s.paymentOutbox.WithTx(tx).Update(ctx, msg); err != nil {
			return err
		}

		// A CANCELLED response confirms a refund the approval hop asked
		// for, so its outbox row must be parked in COMPENSATING.
		if response.PaymentStatus == message.PaymentStatusCancelled {
			approvalOutbox := s.approvalOutbox.WithTx(tx)
			approval, err := approvalOutbox.Find(ctx, sagaID, saga.StatusCompensating)
			if err != nil {
				if errors.Is(err, outbox.ErrMessageNotFound) {
					return fmt.Errorf("%w: approval outbox row for saga %s", ErrSagaInconsistent, sagaID)
				}
				return err
			}
			approval.Advance(string(o.Status), sagaStatus)
			if err := approvalOutbox.Update(ctx, approval); err != nil {
				return err
			}
		}

		logger.FromCtx(ctx).Info("order cancelled after payment failure",
			zap.String("order_id", o.ID.String()),
			zap.Strings("failure_messages", response.FailureMessages))
		return nil
	})
}

func approvalMessage(o *Order, sagaID uuid.UUID, sagaStatus saga.Status) (*outbox.Message, error) {
	products := make([]message.Product, len(o.Items))
	for i, item := range o.Items {
		products[i] = message.Product{
			ID:       item.ProductID.String(),
			Quantity: item.Quantity,
			Price:    item.Price,
		}
	}
	payload, err := json.Marshal(message.OrderApprovalEventPayload{
		OrderID:               o.ID.String(),
		RestaurantID:          o.RestaurantID.String(),
		Price:                 o.Price,
		Products:              products,
		CreatedAt:             time.Now().UTC(),
		RestaurantOrderStatus: message.RestaurantOrderStatusPaid,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal approval event: %w", err)
	}
	return outbox.NewMessage(saga.OrderSagaName, sagaID, payload,
		string(o.Status), sagaStatus, outbox.StatusStarted), nil
}
