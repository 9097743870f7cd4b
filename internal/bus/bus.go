package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"orderflow/internal/logger"
	"orderflow/internal/outbox"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Topics, one per saga hop.
const (
	TopicPaymentRequest   = "payment.request"
	TopicPaymentResponse  = "payment.response"
	TopicApprovalRequest  = "approval.request"
	TopicApprovalResponse = "approval.response"
)

const exchangeName = "orderflow"

const (
	dialRetries    = 10
	dialRetryDelay = 2 * time.Second
)

// Envelope is the wire frame around an outbox payload. MessageID and SagaID
// travel outside the payload so consumers can correlate before decoding.
type Envelope struct {
	ID        string          `json:"id"`
	SagaID    string          `json:"saga_id"`
	Type      string          `json:"type"`
	CreatedAt time.Time       `json:"created_at"`
	Payload   json.RawMessage `json:"payload"`
}

type Connection struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// Dial connects to the broker, retrying while it starts up, and declares the
// shared direct exchange.
func Dial(url string) (*Connection, error) {
	var conn *amqp.Connection
	var err error

	for i := 0; i < dialRetries; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		logger.L().Warn("bus: failed to connect to broker, retrying",
			zap.Int("attempt", i+1), zap.Error(err))
		time.Sleep(dialRetryDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("bus: failed to connect to broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("bus: failed to open a channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchangeName, "direct", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("bus: failed to declare exchange: %w", err)
	}

	return &Connection{conn: conn, channel: ch}, nil
}

func (c *Connection) Close() {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// Publisher forwards outbox messages to one topic. It satisfies
// outbox.Publisher so a scheduler can drive it directly.
type Publisher struct {
	channel *amqp.Channel
	topic   string
}

func NewPublisher(c *Connection, topic string) *Publisher {
	return &Publisher{channel: c.channel, topic: topic}
}

func (p *Publisher) Publish(ctx context.Context, m *outbox.Message) error {
	envelope := Envelope{
		ID:        m.ID.String(),
		SagaID:    m.SagaID.String(),
		Type:      m.Type,
		CreatedAt: m.CreatedAt,
		Payload:   m.Payload,
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("bus: failed to marshal envelope for message %s: %w", m.ID, err)
	}

	err = p.channel.PublishWithContext(ctx, exchangeName, p.topic, false, false, amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     m.ID.String(),
		CorrelationId: m.SagaID.String(),
		Timestamp:     m.CreatedAt,
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("bus: failed to publish message %s to %s: %w", m.ID, p.topic, err)
	}

	return nil
}

// Handler processes one delivery. A nil return acknowledges the message;
// any error nacks it back onto the queue for redelivery.
type Handler func(ctx context.Context, envelope Envelope) error

type Consumer struct {
	channel *amqp.Channel
	queue   string
}

func NewConsumer(c *Connection, topic, queue string) (*Consumer, error) {
	if _, err := c.channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("bus: failed to declare queue %s: %w", queue, err)
	}

	if err := c.channel.QueueBind(queue, topic, exchangeName, false, nil); err != nil {
		return nil, fmt.Errorf("bus: failed to bind queue %s to %s: %w", queue, topic, err)
	}

	return &Consumer{channel: c.channel, queue: queue}, nil
}

// Consume blocks delivering messages to handler until ctx is cancelled or
// the delivery channel closes.
func (c *Consumer) Consume(ctx context.Context, handler Handler) error {
	deliveries, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("bus: failed to start consuming from %s: %w", c.queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("bus: delivery channel for %s closed", c.queue)
			}
			c.handleDelivery(ctx, delivery, handler)
		}
	}
}

func (c *Consumer) handleDelivery(ctx context.Context, delivery amqp.Delivery, handler Handler) {
	var envelope Envelope
	if err := json.Unmarshal(delivery.Body, &envelope); err != nil {
		// A frame that cannot be decoded will never decode; drop it.
		logger.L().Error("bus: dropping undecodable delivery",
			zap.String("queue", c.queue), zap.Error(err))
		_ = delivery.Nack(false, false)
		return
	}

	msgCtx := logger.WithSagaID(ctx, envelope.SagaID)
	if err := handler(msgCtx, envelope); err != nil {
		logger.FromCtx(msgCtx).Error("bus: handler failed, requeueing delivery",
			zap.String("queue", c.queue), zap.Error(err))
		_ = delivery.Nack(false, true)
		return
	}

	_ = delivery.Ack(false)
}
