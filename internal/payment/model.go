package payment

import (
	"time"

	"github.com/google/uuid"

	"orderflow/internal/money"
)

type Status string

const (
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	StatusFailed    Status = "FAILED"
)

// Payment is one payment attempt for an order. A FAILED payment is kept
// for audit; only the ledger of COMPLETED and CANCELLED payments moves
// money.
type Payment struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	CustomerID uuid.UUID
	Price      money.Money
	Status     Status
	CreatedAt  time.Time
}

// CreditEntry is the customer's current balance. It is read under a row
// lock so concurrent payments for one customer serialize.
type CreditEntry struct {
	ID          uuid.UUID
	CustomerID  uuid.UUID
	TotalCredit money.Money
}

type TransactionType string

const (
	TransactionDebit  TransactionType = "DEBIT"
	TransactionCredit TransactionType = "CREDIT"
)

// CreditHistory is one ledger line. The sum of CREDIT lines minus the sum
// of DEBIT lines must always equal the credit entry's total.
type CreditHistory struct {
	ID              uuid.UUID
	CustomerID      uuid.UUID
	Amount          money.Money
	TransactionType TransactionType
}
