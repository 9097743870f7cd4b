package order

import (
	"fmt"

	"github.com/google/uuid"

	"orderflow/internal/money"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusPaid       Status = "PAID"
	StatusApproved   Status = "APPROVED"
	StatusCancelling Status = "CANCELLING"
	StatusCancelled  Status = "CANCELLED"
)

// Item is a single order line. Price is the unit price, SubTotal the
// precomputed Price * Quantity that the client submitted.
type Item struct {
	ID        int
	ProductID uuid.UUID
	Name      string
	Quantity  int
	Price     money.Money
	SubTotal  money.Money
}

type Address struct {
	ID         uuid.UUID
	Street     string
	PostalCode string
	City       string
}

// Order is the aggregate root. All status transitions go through the
// methods below; callers never assign Status directly.
type Order struct {
	ID              uuid.UUID
	CustomerID      uuid.UUID
	RestaurantID    uuid.UUID
	TrackingID      uuid.UUID
	Address         Address
	Price           money.Money
	Items           []Item
	Status          Status
	FailureMessages []string
}

// ValidateAndInitialize checks the pricing invariants and moves the order
// into its initial PENDING state, assigning identifiers.
func (o *Order) ValidateAndInitialize() error {
	if o.Status != "" || o.ID != uuid.Nil {
		return fmt.Errorf("%w: order already initialized", ErrInvalidTransition)
	}
	if err := o.validatePrice(); err != nil {
		return err
	}
	o.ID = uuid.New()
	o.TrackingID = uuid.New()
	o.Status = StatusPending
	for i := range o.Items {
		o.Items[i].ID = i + 1
	}
	return nil
}

func (o *Order) validatePrice() error {
	if !o.Price.IsGreaterThanZero() {
		return fmt.Errorf("%w: order price %s must be greater than zero", ErrValidation, o.Price)
	}
	total := money.Zero()
	for _, item := range o.Items {
		expected := item.Price.Multiply(item.Quantity)
		if !item.SubTotal.Equal(expected) {
			return fmt.Errorf("%w: order item subtotal %s does not match %s x %d",
				ErrValidation, item.SubTotal, item.Price, item.Quantity)
		}
		total = total.Add(item.SubTotal)
	}
	if !o.Price.Equal(total) {
		return fmt.Errorf("%w: order price %s does not match items total %s", ErrValidation, o.Price, total)
	}
	return nil
}

// Pay records a successful payment. Valid only from PENDING.
func (o *Order) Pay() error {
	if o.Status != StatusPending {
		return o.transitionError("pay")
	}
	o.Status = StatusPaid
	return nil
}

// Approve records restaurant approval. Valid only from PAID.
func (o *Order) Approve() error {
	if o.Status != StatusPaid {
		return o.transitionError("approve")
	}
	o.Status = StatusApproved
	return nil
}

// InitCancel starts compensation after a restaurant rejection. The order
// has already been paid, so it parks in CANCELLING until the refund
// confirmation arrives.
func (o *Order) InitCancel(failureMessages []string) error {
	if o.Status != StatusPaid {
		return o.transitionError("init cancel")
	}
	o.Status = StatusCancelling
	o.appendFailures(failureMessages)
	return nil
}

// Cancel finalizes the order as CANCELLED. Valid from PENDING (payment
// failed outright) or CANCELLING (refund confirmed).
func (o *Order) Cancel(failureMessages []string) error {
	if o.Status != StatusPending && o.Status != StatusCancelling {
		return o.transitionError("cancel")
	}
	o.Status = StatusCancelled
	o.appendFailures(failureMessages)
	return nil
}

func (o *Order) appendFailures(messages []string) {
	for _, m := range messages {
		if m != "" {
			o.FailureMessages = append(o.FailureMessages, m)
		}
	}
}

func (o *Order) transitionError(op string) error {
	return fmt.Errorf("%w: cannot %s order %s in state %s", ErrInvalidTransition, op, o.ID, o.Status)
}
