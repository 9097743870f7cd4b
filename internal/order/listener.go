package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"orderflow/internal/bus"
	"orderflow/internal/logger"
	"orderflow/internal/message"
	"orderflow/internal/outbox"
	"orderflow/internal/saga"
)

// PaymentResponseHandler routes payment outcomes to the payment saga step.
func PaymentResponseHandler(step saga.Step[message.PaymentResponse]) bus.Handler {
	return func(ctx context.Context, envelope bus.Envelope) error {
		var payload message.PaymentOrderEventPayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return fmt.Errorf("decode payment response payload: %w", err)
		}
		response := message.PaymentResponse{
			ID:              envelope.ID,
			SagaID:          envelope.SagaID,
			OrderID:         payload.OrderID,
			PaymentID:       payload.PaymentID,
			CustomerID:      payload.CustomerID,
			Price:           payload.Price,
			CreatedAt:       payload.CreatedAt,
			PaymentStatus:   payload.PaymentStatus,
			FailureMessages: payload.FailureMessages,
		}

		var err error
		switch payload.PaymentStatus {
		case message.PaymentStatusCompleted:
			err = step.Process(ctx, response)
		case message.PaymentStatusCancelled, message.PaymentStatusFailed:
			err = step.Rollback(ctx, response)
		default:
			logger.FromCtx(ctx).Warn("unknown payment status, dropping message",
				zap.String("payment_status", string(payload.PaymentStatus)))
			return nil
		}
		return absorb(ctx, err)
	}
}

// ApprovalResponseHandler routes restaurant outcomes to the approval saga step.
func ApprovalResponseHandler(step saga.Step[message.RestaurantApprovalResponse]) bus.Handler {
	return func(ctx context.Context, envelope bus.Envelope) error {
		var payload message.OrderApprovalResponsePayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return fmt.Errorf("decode approval response payload: %w", err)
		}
		response := message.RestaurantApprovalResponse{
			ID:              envelope.ID,
			SagaID:          envelope.SagaID,
			OrderID:         payload.OrderID,
			RestaurantID:    payload.RestaurantID,
			CreatedAt:       payload.CreatedAt,
			OrderApproval:   payload.OrderApproval,
			FailureMessages: payload.FailureMessages,
		}

		var err error
		switch payload.OrderApproval {
		case message.OrderApprovalStatusApproved:
			err = step.Process(ctx, response)
		case message.OrderApprovalStatusRejected:
			err = step.Rollback(ctx, response)
		default:
			logger.FromCtx(ctx).Warn("unknown approval status, dropping message",
				zap.String("order_approval_status", string(payload.OrderApproval)))
			return nil
		}
		return absorb(ctx, err)
	}
}

// absorb acknowledges outcomes that redelivery cannot improve: the
// optimistic lock lost to a concurrent handler, the saga slot is already
// occupied, or the order vanished. Everything else goes back to the queue.
func absorb(ctx context.Context, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, outbox.ErrConcurrentModification),
		errors.Is(err, outbox.ErrDuplicateMessage),
		errors.Is(err, ErrOrderNotFound):
		logger.FromCtx(ctx).Warn("dropping delivery", zap.Error(err))
		return nil
	default:
		return err
	}
}
