package payment

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
)

// RequestListener adapts bus deliveries to the request handler and decides
// which outcomes are worth a redelivery.
func RequestListener(handler *RequestHandler) bus.Handler {
	return func(ctx context.Context, envelope bus.Envelope) error {
		var payload message.OrderPaymentEventPayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return fmt.Errorf("decode payment request payload: %w", err)
		}
		request := message.PaymentRequest{
			ID:                 envelope.ID,
			SagaID:             envelope.SagaID,
			OrderID:            payload.OrderID,
			CustomerID:         payload.CustomerID,
			Price:              payload.Price,
			CreatedAt:          payload.CreatedAt,
			PaymentOrderStatus: payload.PaymentOrderStatus,
		}

		var err error
		switch payload.PaymentOrderStatus {
		case message.PaymentOrderStatusPending:
			err = handler.Complete(ctx, request)
		case message.PaymentOrderStatusCancelled:
			err = handler.Cancel(ctx, request)
		default:
			logger.FromCtx(ctx).Warn("unknown payment order status, dropping message",
				zap.String("payment_order_status", string(payload.PaymentOrderStatus)))
			return nil
		}

		switch {
		case err == nil:
			return nil
		case errors.Is(err, outbox.ErrDuplicateMessage),
			errors.Is(err, outbox.ErrConcurrentModification),
			errors.Is(err, ErrPaymentNotFound):
			logger.FromCtx(ctx).Warn("dropping payment request", zap.Error(err))
			return nil
		default:
			return err
		}
	}
}
