package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey string

const sagaIDKey ctxKey = "saga_id"

func WithSagaID(ctx context.Context, sagaID string) context.Context {
	return context.WithValue(ctx, sagaIDKey, sagaID)
}

func SagaIDFrom(ctx context.Context) string {
	if v := ctx.Value(sagaIDKey); v != nil {
		return v.(string)
	}
	return ""
}

// FromCtx returns logger with saga_id automatically added
func FromCtx(ctx context.Context) *zap.Logger {
	sagaID := SagaIDFrom(ctx)
	if sagaID == "" {
		return L()
	}
	return L().With(zap.String("saga_id", sagaID))
}
