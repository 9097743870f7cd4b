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
	"orderflow/internal/restaurant"
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
		logger.L().Fatal("restaurant-service: failed to connect to message bus", zap.Error(err))
	}
	defer conn.Close()

	restaurants := restaurant.NewRepository(database)
	orderOutbox := outbox.NewRepository(database, "order_outbox", saga.OrderSagaName)
	responses := bus.NewPublisher(conn, bus.TopicApprovalResponse)

	handler := restaurant.NewRequestHandler(database, restaurants, orderOutbox, responses)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	requests, err := bus.NewConsumer(conn, bus.TopicApprovalRequest, "restaurant-service.approval.request")
	if err != nil {
		logger.L().Fatal("restaurant-service: failed to set up request consumer", zap.Error(err))
	}

	go func() {
		if err := requests.Consume(ctx, restaurant.RequestListener(handler)); err != nil && !errors.Is(err, context.Canceled) {
			logger.L().Error("restaurant-service: consumer stopped", zap.Error(err))
		}
	}()

	scheduler := outbox.NewScheduler(
		orderOutbox, responses,
		cfg.OutboxInterval, cfg.OutboxBatchSize,
		saga.StatusSucceeded, saga.StatusCompensating,
	)
	go scheduler.Run(ctx)

	logger.L().Info("restaurant-service: running")
	<-ctx.Done()
	logger.L().Info("restaurant-service: shutting down")
}
