package payment

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"orderflow/internal/money"
)

// DomainService holds the payment business rules. It works on in-memory
// aggregates only; persistence decisions stay with the request handler.
type DomainService struct{}

// ValidateAndInitiate initializes the payment, debits the customer's
// credit, and appends a DEBIT ledger line. Every rejection, a business
// one or a ledger that no longer reconciles, comes back as failure
// messages and leaves the payment FAILED with the ledger untouched.
func (DomainService) ValidateAndInitiate(p *Payment, entry *CreditEntry, histories []CreditHistory) (*CreditHistory, []string) {
	p.ID = uuid.New()
	p.CreatedAt = time.Now().UTC()

	var failures []string
	if !p.Price.IsGreaterThanZero() {
		failures = append(failures, fmt.Sprintf("total price %s must be greater than zero for order %s", p.Price, p.OrderID))
	}
	if p.Price.IsGreaterThan(entry.TotalCredit) {
		failures = append(failures, fmt.Sprintf("customer %s does not have enough credit for payment of %s", p.CustomerID, p.Price))
	}

	if len(failures) > 0 {
		// Nothing below will be persisted, so the ledger stays as is.
		p.Status = StatusFailed
		return nil, failures
	}

	entry.TotalCredit = entry.TotalCredit.Subtract(p.Price)
	history := &CreditHistory{
		ID:              uuid.New(),
		CustomerID:      p.CustomerID,
		Amount:          p.Price,
		TransactionType: TransactionDebit,
	}

	if ledgerFailures := validateHistory(entry, append(histories, *history)); len(ledgerFailures) > 0 {
		p.Status = StatusFailed
		return nil, ledgerFailures
	}

	p.Status = StatusCompleted
	return history, failures
}

// ValidateAndCancel refunds the payment, credits the balance back, and
// appends a CREDIT ledger line.
func (DomainService) ValidateAndCancel(p *Payment, entry *CreditEntry) (*CreditHistory, []string) {
	var failures []string
	if !p.Price.IsGreaterThanZero() {
		failures = append(failures, fmt.Sprintf("total price %s must be greater than zero for order %s", p.Price, p.OrderID))
	}

	if len(failures) > 0 {
		p.Status = StatusFailed
		return nil, failures
	}

	entry.TotalCredit = entry.TotalCredit.Add(p.Price)
	history := &CreditHistory{
		ID:              uuid.New(),
		CustomerID:      p.CustomerID,
		Amount:          p.Price,
		TransactionType: TransactionCredit,
	}

	p.Status = StatusCancelled
	return history, failures
}

// validateHistory reconciles the prospective ledger against the
// prospective balance before anything is persisted. A mismatch is
// recorded as a payment failure, not raised as an error, so the saga
// can still cancel the order.
func validateHistory(entry *CreditEntry, histories []CreditHistory) []string {
	credit := money.Zero()
	debit := money.Zero()
	for _, h := range histories {
		switch h.TransactionType {
		case TransactionCredit:
			credit = credit.Add(h.Amount)
		case TransactionDebit:
			debit = debit.Add(h.Amount)
		}
	}

	var failures []string
	if debit.IsGreaterThan(credit) {
		failures = append(failures, fmt.Sprintf("customer %s credit history debits %s exceed credits %s",
			entry.CustomerID, debit, credit))
	}
	if !entry.TotalCredit.Equal(credit.Subtract(debit)) {
		failures = append(failures, fmt.Sprintf("customer %s credit amount %s is not equal to credit history total %s",
			entry.CustomerID, entry.TotalCredit, credit.Subtract(debit)))
	}
	return failures
}
