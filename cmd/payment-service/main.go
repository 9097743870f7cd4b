package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"orderflow/internal/bus"
	"orderflow/internal/config"
	"orderflow/internal/db"
	"orderflow/internal/logger"
	"orderflow/internal/outbox"
	"orderflow/internal/payment"
	"orderflow/internal/saga"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := db.InitDB(cfg)
	defer database.Close()

	conn, err := bus.Dial(cfg.AMQPURL)
	if err != nil {
		logger.L().Fatal("payment-service: failed to connect to message bus", zap.Error(err))
	}
	defer conn.Close()

	payments := payment.NewRepository(database)
	orderOutbox := outbox.NewRepository(database, "order_outbox", saga.OrderSagaName)
	responses := bus.NewPublisher(conn, bus.TopicPaymentResponse)

	handler := payment.NewRequestHandler(database, payments, orderOutbox, responses)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	requests, err := bus.NewConsumer(conn, bus.TopicPaymentRequest, "payment-service.payment.request")
	if err != nil {
		logger.L().Fatal("payment-service: failed to set up request consumer", zap.Error(err))
	}

	go func() {
		if err := requests.Consume(ctx, payment.RequestListener(handler)); err != nil && !errors.Is(err, context.Canceled) {
			logger.L().Error("payment-service: consumer stopped", zap.Error(err))
		}
	}()

	scheduler := outbox.NewScheduler(
		orderOutbox, responses,
		cfg.OutboxInterval, cfg.OutboxBatchSize,
		saga.StatusProcessing, saga.StatusCompensated, saga.StatusFailed,
	)
	go scheduler.Run(ctx)

	logger.L().Info("payment-service: running")
	<-ctx.Done()
	logger.L().Info("payment-service: shutting down")
}
