package restaurant

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

// RequestListener adapts bus deliveries to the request handler.
func RequestListener(handler *RequestHandler) bus.Handler {
	return func(ctx context.Context, envelope bus.Envelope) error {
		var payload message.OrderApprovalEventPayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return fmt.Errorf("decode approval request payload: %w", err)
		}
		if payload.RestaurantOrderStatus != message.RestaurantOrderStatusPaid {
			logger.FromCtx(ctx).Warn("unexpected restaurant order status, dropping message",
				zap.String("restaurant_order_status", string(payload.RestaurantOrderStatus)))
			return nil
		}

		request := message.RestaurantApprovalRequest{
			ID:                    envelope.ID,
			SagaID:                envelope.SagaID,
			OrderID:               payload.OrderID,
			RestaurantID:          payload.RestaurantID,
			Price:                 payload.Price,
			Products:              payload.Products,
			CreatedAt:             payload.CreatedAt,
			RestaurantOrderStatus: payload.RestaurantOrderStatus,
		}

		err := handler.Approve(ctx, request)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, outbox.ErrDuplicateMessage),
			errors.Is(err, ErrRestaurantNotFound):
			logger.FromCtx(ctx).Warn("dropping approval request", zap.Error(err))
			return nil
		default:
			return err
		}
	}
}
