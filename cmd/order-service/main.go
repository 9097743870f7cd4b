package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"orderflow/internal/bus"
	"orderflow/internal/config"
	"orderflow/internal/db"
	"orderflow/internal/logger"
	"orderflow/internal/order"
	"orderflow/internal/outbox"
	"orderflow/internal/saga"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := db.InitDB(cfg)
	defer database.Close()

	conn, err := bus.Dial(cfg.AMQPURL)
	if err != nil {
		logger.L().Fatal("order-service: failed to connect to message bus", zap.Error(err))
	}
	defer conn.Close()

	orders := order.NewRepository(database)
	paymentOutbox := outbox.NewRepository(database, "payment_outbox", saga.OrderSagaName)
	approvalOutbox := outbox.NewRepository(database, "approval_outbox", saga.OrderSagaName)

	svc := order.NewService(database, orders, paymentOutbox)
	api := order.NewAPI(svc)

	paymentSaga := order.NewPaymentSaga(database, orders, paymentOutbox, approvalOutbox)
	approvalSaga := order.NewApprovalSaga(database, orders, paymentOutbox, approvalOutbox)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	paymentResponses, err := bus.NewConsumer(conn, bus.TopicPaymentResponse, "order-service.payment.response")
	if err != nil {
		logger.L().Fatal("order-service: failed to set up payment response consumer", zap.Error(err))
	}
	approvalResponses, err := bus.NewConsumer(conn, bus.TopicApprovalResponse, "order-service.approval.response")
	if err != nil {
		logger.L().Fatal("order-service: failed to set up approval response consumer", zap.Error(err))
	}

	go consume(ctx, paymentResponses, order.PaymentResponseHandler(paymentSaga), "payment.response")
	go consume(ctx, approvalResponses, order.ApprovalResponseHandler(approvalSaga), "approval.response")

	paymentScheduler := outbox.NewScheduler(
		paymentOutbox, bus.NewPublisher(conn, bus.TopicPaymentRequest),
		cfg.OutboxInterval, cfg.OutboxBatchSize,
		saga.StatusStarted, saga.StatusCompensating,
	)
	approvalScheduler := outbox.NewScheduler(
		approvalOutbox, bus.NewPublisher(conn, bus.TopicApprovalRequest),
		cfg.OutboxInterval, cfg.OutboxBatchSize,
		saga.StatusProcessing, saga.StatusCompensating,
	)
	go paymentScheduler.Run(ctx)
	go approvalScheduler.Run(ctx)

	server := &http.Server{Addr: ":" + cfg.AppPort, Handler: api.Routes()}
	go func() {
		logger.L().Info("order-service: HTTP API listening", zap.String("port", cfg.AppPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal("order-service: HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.L().Info("order-service: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Error("order-service: HTTP shutdown failed", zap.Error(err))
	}
}

func consume(ctx context.Context, c *bus.Consumer, h bus.Handler, topic string) {
	if err := c.Consume(ctx, h); err != nil && !errors.Is(err, context.Canceled) {
		logger.L().Error("order-service: consumer stopped", zap.String("topic", topic), zap.Error(err))
	}
}
