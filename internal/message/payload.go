package message

import (
	"time"

	"orderflow/internal/money"
)

// Event payloads are the JSON documents persisted in outbox rows. The
// scheduler forwards them verbatim, so their shape is the bus contract for
// each hop.

// OrderPaymentEventPayload is stored in the order service's payment outbox
// and becomes a PaymentRequest on the wire.
type OrderPaymentEventPayload struct {
	OrderID            string             `json:"order_id"`
	CustomerID         string             `json:"customer_id"`
	Price              money.Money        `json:"price"`
	CreatedAt          time.Time          `json:"created_at"`
	PaymentOrderStatus PaymentOrderStatus `json:"payment_order_status"`
}

// OrderApprovalEventPayload is stored in the order service's approval outbox
// and becomes a RestaurantApprovalRequest on the wire.
type OrderApprovalEventPayload struct {
	OrderID               string                `json:"order_id"`
	RestaurantID          string                `json:"restaurant_id"`
	Price                 money.Money           `json:"price"`
	Products              []Product             `json:"products"`
	CreatedAt             time.Time             `json:"created_at"`
	RestaurantOrderStatus RestaurantOrderStatus `json:"restaurant_order_status"`
}

// PaymentOrderEventPayload is stored in the payment service's order outbox
// and becomes a PaymentResponse on the wire.
type PaymentOrderEventPayload struct {
	PaymentID       string        `json:"payment_id"`
	OrderID         string        `json:"order_id"`
	CustomerID      string        `json:"customer_id"`
	Price           money.Money   `json:"price"`
	CreatedAt       time.Time     `json:"created_at"`
	PaymentStatus   PaymentStatus `json:"payment_status"`
	FailureMessages []string      `json:"failure_messages"`
}

// OrderApprovalResponsePayload is stored in the restaurant service's order
// outbox and becomes a RestaurantApprovalResponse on the wire.
type OrderApprovalResponsePayload struct {
	OrderID         string              `json:"order_id"`
	RestaurantID    string              `json:"restaurant_id"`
	CreatedAt       time.Time           `json:"created_at"`
	OrderApproval   OrderApprovalStatus `json:"order_approval_status"`
	FailureMessages []string            `json:"failure_messages"`
}
