package restaurant

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

// RequestHandler decides approval requests. The verdict and the response
// outbox row commit in one transaction.
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

func (h *RequestHandler) Approve(ctx context.Context, request message.RestaurantApprovalRequest) error {
	sagaID, err := uuid.Parse(request.SagaID)
	if err != nil {
		return fmt.Errorf("parse saga id %q: %w", request.SagaID, err)
	}

	// Duplicate-request gate: a COMPLETED response outbox row means this
	// request was decided and answered already. Republish the stored
	// verdict in case the earlier response was lost.
	if existing, err := h.orderOutbox.FindCompleted(ctx, sagaID); err == nil {
		logger.FromCtx(ctx).Info("approval request already handled",
			zap.String("order_id", request.OrderID))
		if h.publisher != nil {
			if err := h.publisher.Publish(ctx, existing); err != nil {
				logger.FromCtx(ctx).Warn("republish of handled verdict failed", zap.Error(err))
			}
		}
		return nil
	} else if !errors.Is(err, outbox.ErrMessageNotFound) {
		return err
	}

	orderID, err := uuid.Parse(request.OrderID)
	if err != nil {
		return fmt.Errorf("parse order id %q: %w", request.OrderID, err)
	}
	restaurantID, err := uuid.Parse(request.RestaurantID)
	if err != nil {
		return fmt.Errorf("parse restaurant id %q: %w", request.RestaurantID, err)
	}

	productIDs := make([]uuid.UUID, 0, len(request.Products))
	for _, p := range request.Products {
		id, err := uuid.Parse(p.ID)
		if err != nil {
			return fmt.Errorf("parse product id %q: %w", p.ID, err)
		}
		productIDs = append(productIDs, id)
	}

	restaurant, err := h.repo.FindRestaurant(ctx, restaurantID, productIDs)
	if err != nil {
		return err
	}

	failures := h.domain.ValidateOrder(restaurant, request.Price, request.Products)
	status := ApprovalStatusApproved
	if len(failures) > 0 {
		status = ApprovalStatusRejected
		logger.FromCtx(ctx).Warn("order rejected",
			zap.String("order_id", request.OrderID),
			zap.Strings("failure_messages", failures))
	}

	approval := &OrderApproval{
		ID:           uuid.New(),
		OrderID:      orderID,
		RestaurantID: restaurantID,
		Status:       status,
	}

	payload, err := json.Marshal(message.OrderApprovalResponsePayload{
		OrderID:         request.OrderID,
		RestaurantID:    request.RestaurantID,
		CreatedAt:       time.Now().UTC(),
		OrderApproval:   message.OrderApprovalStatus(status),
		FailureMessages: failures,
	})
	if err != nil {
		return fmt.Errorf("marshal approval event: %w", err)
	}
	msg := outbox.NewMessage(saga.OrderSagaName, sagaID, payload,
		string(status), sagaStatusFor(status), outbox.StatusStarted)

	return db.WithinTx(ctx, h.database, func(tx *sql.Tx) error {
		if err := h.repo.WithTx(tx).SaveOrderApproval(ctx, approval); err != nil {
			return err
		}
		return h.orderOutbox.WithTx(tx).Insert(ctx, msg)
	})
}

// sagaStatusFor maps the verdict onto the saga coordinate of the response
// outbox row. A rejection starts the compensation phase.
func sagaStatusFor(status ApprovalStatus) saga.Status {
	if status == ApprovalStatusApproved {
		return saga.StatusSucceeded
	}
	return saga.StatusCompensating
}
