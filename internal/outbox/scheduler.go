package outbox

import (
	"context"
	"errors"
	"strings"
	"time"

	"orderflow/internal/logger"
	"orderflow/internal/saga"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Publisher is the message-bus boundary the scheduler hands ready rows to.
type Publisher interface {
	Publish(ctx context.Context, m *Message) error
}

// Scheduler periodically polls one outbox table for rows with outbox status
// STARTED and a publishable saga status, forwards them to the bus and flips
// their outbox status from the publish result. Rows are never deleted. The
// status flip races with the next tick, so a row can be published more than
// once; the consumer-side idempotency gate absorbs that.
type Scheduler struct {
	repo         Repository
	publisher    Publisher
	interval     time.Duration
	batchSize    int
	sagaStatuses []saga.Status
	limiter      *rate.Limiter
}

// publishRate bounds how fast a backlog drains onto the bus.
const publishRate = rate.Limit(200)

func NewScheduler(repo Repository, publisher Publisher, interval time.Duration, batchSize int, sagaStatuses ...saga.Status) *Scheduler {
	return &Scheduler{
		repo:         repo,
		publisher:    publisher,
		interval:     interval,
		batchSize:    batchSize,
		sagaStatuses: sagaStatuses,
		limiter:      rate.NewLimiter(publishRate, batchSize),
	}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.ProcessOutboxMessages(ctx)
		}
	}
}

// ProcessOutboxMessages publishes one batch of ready rows.
func (s *Scheduler) ProcessOutboxMessages(ctx context.Context) {
	messages, err := s.repo.FindReady(ctx, s.batchSize, s.sagaStatuses...)
	if err != nil {
		logger.L().Error("scheduler: failed to fetch ready outbox messages", zap.Error(err))
		return
	}

	if len(messages) == 0 {
		return
	}

	ids := make([]string, 0, len(messages))
	for _, m := range messages {
		ids = append(ids, m.ID.String())
	}
	logger.L().Info("scheduler: sending outbox messages to message bus",
		zap.Int("count", len(messages)),
		zap.String("ids", strings.Join(ids, ",")))

	for _, m := range messages {
		if err := s.limiter.Wait(ctx); err != nil {
			return
		}

		status := StatusCompleted
		if err := s.publisher.Publish(ctx, m); err != nil {
			logger.L().Error("scheduler: failed to publish outbox message",
				zap.String("id", m.ID.String()), zap.Error(err))
			status = StatusFailed
		}

		s.updateOutboxStatus(ctx, m, status)
	}
}

func (s *Scheduler) updateOutboxStatus(ctx context.Context, m *Message, status Status) {
	m.OutboxStatus = status

	err := s.repo.Update(ctx, m)
	switch {
	case err == nil:
		logger.L().Info("scheduler: outbox message updated",
			zap.String("id", m.ID.String()), zap.String("outbox_status", status.String()))
	case errors.Is(err, ErrConcurrentModification):
		// Another writer advanced the row first; its update stands.
		logger.L().Info("scheduler: outbox message already updated elsewhere",
			zap.String("id", m.ID.String()))
	default:
		logger.L().Error("scheduler: failed to update outbox message status",
			zap.String("id", m.ID.String()), zap.Error(err))
	}
}
