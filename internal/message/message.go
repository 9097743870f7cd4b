package message

import (
	"time"

	"orderflow/internal/money"
)

// PaymentOrderStatus is the order-side status carried on payment requests.
type PaymentOrderStatus string

const (
	PaymentOrderStatusPending   PaymentOrderStatus = "PENDING"
	PaymentOrderStatusCancelled PaymentOrderStatus = "CANCELLED"
)

// PaymentStatus is the outcome reported by the payment service.
type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// RestaurantOrderStatus is the order-side status carried on approval requests.
type RestaurantOrderStatus string

const RestaurantOrderStatusPaid RestaurantOrderStatus = "PAID"

// OrderApprovalStatus is the outcome reported by the restaurant service.
type OrderApprovalStatus string

const (
	OrderApprovalStatusApproved OrderApprovalStatus = "APPROVED"
	OrderApprovalStatusRejected OrderApprovalStatus = "REJECTED"
)

// PaymentRequest asks the payment service to complete or cancel the payment
// for an order.
type PaymentRequest struct {
	ID                 string             `json:"id"`
	SagaID             string             `json:"saga_id"`
	OrderID            string             `json:"order_id"`
	CustomerID         string             `json:"customer_id"`
	Price              money.Money        `json:"price"`
	CreatedAt          time.Time          `json:"created_at"`
	PaymentOrderStatus PaymentOrderStatus `json:"payment_order_status"`
}

// PaymentResponse reports the payment outcome back to the order service.
type PaymentResponse struct {
	ID              string        `json:"id"`
	SagaID          string        `json:"saga_id"`
	OrderID         string        `json:"order_id"`
	PaymentID       string        `json:"payment_id"`
	CustomerID      string        `json:"customer_id"`
	Price           money.Money   `json:"price"`
	CreatedAt       time.Time     `json:"created_at"`
	PaymentStatus   PaymentStatus `json:"payment_status"`
	FailureMessages []string      `json:"failure_messages"`
}

// RestaurantApprovalRequest asks the restaurant service to approve an order.
type RestaurantApprovalRequest struct {
	ID                    string                `json:"id"`
	SagaID                string                `json:"saga_id"`
	OrderID               string                `json:"order_id"`
	RestaurantID          string                `json:"restaurant_id"`
	Price                 money.Money           `json:"price"`
	Products              []Product             `json:"products"`
	CreatedAt             time.Time             `json:"created_at"`
	RestaurantOrderStatus RestaurantOrderStatus `json:"restaurant_order_status"`
}

// Product is a requested order line as seen by the restaurant service.
type Product struct {
	ID       string      `json:"id"`
	Quantity int         `json:"quantity"`
	Price    money.Money `json:"price"`
}

// RestaurantApprovalResponse reports the approval outcome back to the order
// service.
type RestaurantApprovalResponse struct {
	ID              string              `json:"id"`
	SagaID          string              `json:"saga_id"`
	OrderID         string              `json:"order_id"`
	RestaurantID    string              `json:"restaurant_id"`
	CreatedAt       time.Time           `json:"created_at"`
	OrderApproval   OrderApprovalStatus `json:"order_approval_status"`
	FailureMessages []string            `json:"failure_messages"`
}
