package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"orderflow/internal/db"
	"orderflow/internal/logger"
	"orderflow/internal/message"
	"orderflow/internal/money"
	"orderflow/internal/outbox"
	"orderflow/internal/saga"
)

// CreateOrderCommand carries the client's order request.
type CreateOrderCommand struct {
	CustomerID   uuid.UUID
	RestaurantID uuid.UUID
	Address      Address
	Price        money.Money
	Items        []CreateOrderItem
}

type CreateOrderItem struct {
	ProductID uuid.UUID
	Quantity  int
	Price     money.Money
	SubTotal  money.Money
}

type Service interface {
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*Order, error)
	TrackOrder(ctx context.Context, trackingID uuid.UUID) (*Order, error)
}

type service struct {
	database      *sql.DB
	orders        Repository
	paymentOutbox outbox.Repository
}

func NewService(database *sql.DB, orders Repository, paymentOutbox outbox.Repository) Service {
	return &service{database: database, orders: orders, paymentOutbox: paymentOutbox}
}

// CreateOrder validates the request against the customer and restaurant
// replicas, persists the order, and enqueues the payment request in the
// payment outbox within the same transaction.
func (s *service) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*Order, error) {
	exists, err := s.orders.CustomerExists(ctx, cmd.CustomerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrCustomerNotFound, cmd.CustomerID)
	}

	o, err := s.buildOrder(ctx, cmd)
	if err != nil {
		return nil, err
	}

	sagaID := uuid.New()
	payload, err := json.Marshal(message.OrderPaymentEventPayload{
		OrderID:            o.ID.String(),
		CustomerID:         o.CustomerID.String(),
		Price:              o.Price,
		CreatedAt:          time.Now().UTC(),
		PaymentOrderStatus: message.PaymentOrderStatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal payment event: %w", err)
	}
	msg := outbox.NewMessage(saga.OrderSagaName, sagaID, payload,
		string(o.Status), sagaStatusFor(o.Status), outbox.StatusStarted)

	err = db.WithinTx(ctx, s.database, func(tx *sql.Tx) error {
		if err := s.orders.WithTx(tx).Create(ctx, o); err != nil {
			return err
		}
		return s.paymentOutbox.WithTx(tx).Insert(ctx, msg)
	})
	if err != nil {
		return nil, err
	}

	logger.L().Info("order created",
		zap.String("order_id", o.ID.String()),
		zap.String("tracking_id", o.TrackingID.String()),
		zap.String("saga_id", sagaID.String()))
	return o, nil
}

func (s *service) TrackOrder(ctx context.Context, trackingID uuid.UUID) (*Order, error) {
	return s.orders.GetByTrackingID(ctx, trackingID)
}

// buildOrder cross-checks the items against the replicated restaurant
// catalog and runs the aggregate's own validation.
func (s *service) buildOrder(ctx context.Context, cmd CreateOrderCommand) (*Order, error) {
	productIDs := make([]uuid.UUID, len(cmd.Items))
	for i, item := range cmd.Items {
		productIDs[i] = item.ProductID
	}

	products, err := s.orders.FindRestaurantProducts(ctx, cmd.RestaurantID, productIDs)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRestaurantNotFound, cmd.RestaurantID)
	}
	if !products[0].RestaurantActive {
		return nil, fmt.Errorf("%w: restaurant %s is not active", ErrValidation, cmd.RestaurantID)
	}
	catalog := make(map[uuid.UUID]RestaurantProduct, len(products))
	for _, p := range products {
		catalog[p.ProductID] = p
	}

	o := &Order{
		CustomerID:   cmd.CustomerID,
		RestaurantID: cmd.RestaurantID,
		Address:      cmd.Address,
		Price:        cmd.Price,
	}
	o.Address.ID = uuid.New()
	for _, item := range cmd.Items {
		p, ok := catalog[item.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: product %s not found for restaurant %s", ErrValidation, item.ProductID, cmd.RestaurantID)
		}
		if !item.Price.Equal(p.Price) {
			return nil, fmt.Errorf("%w: product %s price %s does not match catalog price %s",
				ErrValidation, item.ProductID, item.Price, p.Price)
		}
		o.Items = append(o.Items, Item{
			ProductID: item.ProductID,
			Name:      p.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
			SubTotal:  item.SubTotal,
		})
	}

	if err := o.ValidateAndInitialize(); err != nil {
		return nil, err
	}
	return o, nil
}
