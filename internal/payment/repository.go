package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"orderflow/internal/db"
)

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	SavePayment(ctx context.Context, p *Payment) error
	GetPaymentByOrderID(ctx context.Context, orderID uuid.UUID) (*Payment, error)
	// GetCreditEntryForUpdate takes a row lock so concurrent payments for
	// the same customer serialize on the balance.
	GetCreditEntryForUpdate(ctx context.Context, customerID uuid.UUID) (*CreditEntry, error)
	UpdateCreditEntry(ctx context.Context, entry *CreditEntry) error
	ListCreditHistory(ctx context.Context, customerID uuid.UUID) ([]CreditHistory, error)
	SaveCreditHistory(ctx context.Context, h *CreditHistory) error
}

type postgresRepository struct {
	dbtx db.DBTX
}

func NewRepository(dbtx db.DBTX) Repository {
	return &postgresRepository{dbtx: dbtx}
}

func (r *postgresRepository) WithTx(tx *sql.Tx) Repository {
	return &postgresRepository{dbtx: tx}
}

func (r *postgresRepository) SavePayment(ctx context.Context, p *Payment) error {
	query := `
		INSERT INTO payments (id, order_id, customer_id, price, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status`
	_, err := r.dbtx.ExecContext(ctx, query,
		p.ID, p.OrderID, p.CustomerID, p.Price, p.Status, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("save payment: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetPaymentByOrderID(ctx context.Context, orderID uuid.UUID) (*Payment, error) {
	query := `
		SELECT id, order_id, customer_id, price, status, created_at
		FROM payments
		WHERE order_id = $1`
	var p Payment
	err := r.dbtx.QueryRowContext(ctx, query, orderID).Scan(
		&p.ID, &p.OrderID, &p.CustomerID, &p.Price, &p.Status, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select payment: %w", err)
	}
	return &p, nil
}

func (r *postgresRepository) GetCreditEntryForUpdate(ctx context.Context, customerID uuid.UUID) (*CreditEntry, error) {
	// Bound the wait on the row lock; a stuck peer transaction must not
	// stall the consumer indefinitely. SET LOCAL scopes it to the
	// surrounding transaction.
	if _, err := r.dbtx.ExecContext(ctx, `SET LOCAL lock_timeout = '5s'`); err != nil {
		return nil, fmt.Errorf("set lock timeout: %w", err)
	}
	query := `
		SELECT id, customer_id, total_credit_amount
		FROM credit_entries
		WHERE customer_id = $1
		FOR UPDATE`
	var entry CreditEntry
	err := r.dbtx.QueryRowContext(ctx, query, customerID).Scan(
		&entry.ID, &entry.CustomerID, &entry.TotalCredit)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCreditEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select credit entry: %w", err)
	}
	return &entry, nil
}

func (r *postgresRepository) UpdateCreditEntry(ctx context.Context, entry *CreditEntry) error {
	query := `
		UPDATE credit_entries
		SET total_credit_amount = $1
		WHERE id = $2`
	result, err := r.dbtx.ExecContext(ctx, query, entry.TotalCredit, entry.ID)
	if err != nil {
		return fmt.Errorf("update credit entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update credit entry: %w", err)
	}
	if affected == 0 {
		return ErrCreditEntryNotFound
	}
	return nil
}

func (r *postgresRepository) ListCreditHistory(ctx context.Context, customerID uuid.UUID) ([]CreditHistory, error) {
	query := `
		SELECT id, customer_id, amount, transaction_type
		FROM credit_history
		WHERE customer_id = $1`
	rows, err := r.dbtx.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("select credit history: %w", err)
	}
	defer rows.Close()

	var histories []CreditHistory
	for rows.Next() {
		var h CreditHistory
		if err := rows.Scan(&h.ID, &h.CustomerID, &h.Amount, &h.TransactionType); err != nil {
			return nil, fmt.Errorf("scan credit history: %w", err)
		}
		histories = append(histories, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credit history: %w", err)
	}
	return histories, nil
}

func (r *postgresRepository) SaveCreditHistory(ctx context.Context, h *CreditHistory) error {
	query := `
		INSERT INTO credit_history (id, customer_id, amount, transaction_type)
		VALUES ($1, $2, $3, $4)`
	_, err := r.dbtx.ExecContext(ctx, query, h.ID, h.CustomerID, h.Amount, h.TransactionType)
	if err != nil {
		return fmt.Errorf("insert credit history: %w", err)
	}
	return nil
}
