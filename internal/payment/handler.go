package payment

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

// RequestHandler executes payment requests coming off the bus. Each
// request runs in one transaction: payment row, ledger mutation, and the
// response outbox row commit together.
type RequestHandler struct {
	database    *sql.DB
	repo        Repository
	orderOutbox outbox.Repository
	publisher   outbox.Publisher
	domain      DomainService
}

func NewRequestHandler(database *sql.DB, repo Repository, orderOutbox outbox.Repository, publisher outbox.Publisher) *RequestHandler {
	return &RequestHandler{database: database, repo: repo, orderOutbox: orderOutbox, publisher: publisher}
}

// Complete charges the customer for a new order.
func (h *RequestHandler) Complete(ctx context.Context, request message.PaymentRequest) error {
	sagaID, err := uuid.Parse(request.SagaID)
	if err != nil {
		return fmt.Errorf("parse saga id %q: %w", request.SagaID, err)
	}
	done, err := h.alreadyHandled(ctx, sagaID, StatusCompleted)
	if err != nil || done {
		return err
	}

	orderID, err := uuid.Parse(request.OrderID)
	if err != nil {
		return fmt.Errorf("parse order id %q: %w", request.OrderID, err)
	}
	customerID, err := uuid.Parse(request.CustomerID)
	if err != nil {
		return fmt.Errorf("parse customer id %q: %w", request.CustomerID, err)
	}

	return db.WithinTx(ctx, h.database, func(tx *sql.Tx) error {
		repo := h.repo.WithTx(tx)
		entry, err := repo.GetCreditEntryForUpdate(ctx, customerID)
		if err != nil {
			return err
		}
		histories, err := repo.ListCreditHistory(ctx, customerID)
		if err != nil {
			return err
		}

		p := &Payment{OrderID: orderID, CustomerID: customerID, Price: request.Price}
		history, failures := h.domain.ValidateAndInitiate(p, entry, histories)
		return h.persistOutcome(ctx, tx, p, entry, history, failures, sagaID)
	})
}

// Cancel refunds a previously completed payment.
func (h *RequestHandler) Cancel(ctx context.Context, request message.PaymentRequest) error {
	sagaID, err := uuid.Parse(request.SagaID)
	if err != nil {
		return fmt.Errorf("parse saga id %q: %w", request.SagaID, err)
	}
	done, err := h.alreadyHandled(ctx, sagaID, StatusCancelled)
	if err != nil || done {
		return err
	}

	orderID, err := uuid.Parse(request.OrderID)
	if err != nil {
		return fmt.Errorf("parse order id %q: %w", request.OrderID, err)
	}

	return db.WithinTx(ctx, h.database, func(tx *sql.Tx) error {
		repo := h.repo.WithTx(tx)
		p, err := repo.GetPaymentByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		entry, err := repo.GetCreditEntryForUpdate(ctx, p.CustomerID)
		if err != nil {
			return err
		}

		history, failures := h.domain.ValidateAndCancel(p, entry)
		return h.persistOutcome(ctx, tx, p, entry, history, failures, sagaID)
	})
}

// alreadyHandled is the duplicate-request gate: a COMPLETED response
// outbox row for this saga id and outcome means the work was done before.
// The stored response is published again in case the first one was lost.
func (h *RequestHandler) alreadyHandled(ctx context.Context, sagaID uuid.UUID, outcome Status) (bool, error) {
	msg, err := h.orderOutbox.FindCompletedByDomainStatus(ctx, sagaID, string(outcome))
	if err == nil {
		logger.FromCtx(ctx).Info("payment request already handled",
			zap.String("outcome", string(outcome)))
		if h.publisher != nil {
			if err := h.publisher.Publish(ctx, msg); err != nil {
				logger.FromCtx(ctx).Warn("republish of handled response failed", zap.Error(err))
			}
		}
		return true, nil
	}
	if errors.Is(err, outbox.ErrMessageNotFound) {
		return false, nil
	}
	return false, err
}

// persistOutcome writes the payment row unconditionally, the ledger only
// when the payment went through, and always enqueues the response.
func (h *RequestHandler) persistOutcome(ctx context.Context, tx *sql.Tx, p *Payment, entry *CreditEntry, history *CreditHistory, failures []string, sagaID uuid.UUID) error {
	repo := h.repo.WithTx(tx)
	if err := repo.SavePayment(ctx, p); err != nil {
		return err
	}
	if len(failures) == 0 {
		if err := repo.UpdateCreditEntry(ctx, entry); err != nil {
			return err
		}
		if err := repo.SaveCreditHistory(ctx, history); err != nil {
			return err
		}
	} else {
		logger.FromCtx(ctx).Warn("payment rejected",
			zap.String("order_id", p.OrderID.String()),
			zap.Strings("failure_messages", failures))
	}

	payload, err := json.Marshal(message.PaymentOrderEventPayload{
		PaymentID:       p.ID.String(),
		OrderID:         p.OrderID.String(),
		CustomerID:      p.CustomerID.String(),
		Price:           p.Price,
		CreatedAt:       time.Now().UTC(),
		PaymentStatus:   message.PaymentStatus(p.Status),
		FailureMessages: failures,
	})
	if err != nil {
		return fmt.Errorf("marshal payment event: %w", err)
	}
	msg := outbox.NewMessage(saga.OrderSagaName, sagaID, payload,
		string(p.Status), sagaStatusFor(p.Status), outbox.StatusStarted)
	return h.orderOutbox.WithTx(tx).Insert(ctx, msg)
}

// sagaStatusFor maps the payment outcome onto the saga coordinate of the
// response outbox row.
func sagaStatusFor(status Status) saga.Status {
	switch status {
	case StatusCompleted:
		return saga.StatusProcessing
	case StatusCancelled:
		return saga.StatusCompensated
	default:
		return saga.StatusFailed
	}
}
