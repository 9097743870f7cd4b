package restaurant

import (
	"errors"

	"github.com/google/uuid"

	"orderflow/internal/money"
)

var ErrRestaurantNotFound = errors.New("restaurant not found")

type ApprovalStatus string

const (
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	ApprovalStatusRejected ApprovalStatus = "REJECTED"
)

// Product is one catalog entry of a restaurant.
type Product struct {
	ID        uuid.UUID
	Name      string
	Price     money.Money
	Available bool
}

type Restaurant struct {
	ID       uuid.UUID
	Name     string
	Active   bool
	Products map[uuid.UUID]Product
}

// OrderApproval is the persisted verdict for one order.
type OrderApproval struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	RestaurantID uuid.UUID
	Status       ApprovalStatus
}
