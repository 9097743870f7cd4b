package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"orderflow/internal/db"
	"orderflow/internal/saga"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrMessageNotFound = errors.New("outbox: message not found")

	// ErrDuplicateMessage means another transaction already inserted a row
	// for the same (type, saga_id, saga_status) slot.
	ErrDuplicateMessage = errors.New("outbox: saga slot already occupied")

	// ErrConcurrentModification means the row version changed between read
	// and update; the winning transaction already did the work.
	ErrConcurrentModification = errors.New("outbox: message modified concurrently")
)

const uniqueViolation = pq.ErrorCode("23505")

type Repository interface {
	// WithTx returns a repository view that runs inside the given transaction.
	WithTx(tx *sql.Tx) Repository
	Find(ctx context.Context, sagaID uuid.UUID, sagaStatuses ...saga.Status) (*Message, error)
	// FindCompletedByDomainStatus is the duplicate-request gate on the
	// response side: a COMPLETED row for this saga id and domain status
	// means the request was fully handled before.
	FindCompletedByDomainStatus(ctx context.Context, sagaID uuid.UUID, domainStatus string) (*Message, error)
	// FindCompleted is the same gate without a domain status filter.
	FindCompleted(ctx context.Context, sagaID uuid.UUID) (*Message, error)
	FindReady(ctx context.Context, limit int, sagaStatuses ...saga.Status) ([]*Message, error)
	Insert(ctx context.Context, m *Message) error
	Update(ctx context.Context, m *Message) error
}

type repository struct {
	db       db.DBTX
	table    string
	sagaType string
}

// NewRepository returns a Repository over one outbox table. All rows it
// touches carry the given saga type.
func NewRepository(dbtx db.DBTX, table, sagaType string) Repository {
	return &repository{db: dbtx, table: table, sagaType: sagaType}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: tx, table: r.table, sagaType: r.sagaType}
}

func (r *repository) Find(ctx context.Context, sagaID uuid.UUID, sagaStatuses ...saga.Status) (*Message, error) {
	query := fmt.Sprintf(`
		SELECT id, saga_id, created_at, processed_at, type, payload, domain_status, saga_status, outbox_status, version
		FROM %s
		WHERE type = $1 AND saga_id = $2 AND saga_status = ANY($3)
	`, r.table)

	row := r.db.QueryRowContext(ctx, query, r.sagaType, sagaID, pq.Array(statusStrings(sagaStatuses)))
	return scanMessage(row)
}

func (r *repository) FindCompletedByDomainStatus(ctx context.Context, sagaID uuid.UUID, domainStatus string) (*Message, error) {
	query := fmt.Sprintf(`
		SELECT id, saga_id, created_at, processed_at, type, payload, domain_status, saga_status, outbox_status, version
		FROM %s
		WHERE type = $1 AND saga_id = $2 AND domain_status = $3 AND outbox_status = $4
	`, r.table)

	row := r.db.QueryRowContext(ctx, query, r.sagaType, sagaID, domainStatus, StatusCompleted.String())
	return scanMessage(row)
}

func (r *repository) FindCompleted(ctx context.Context, sagaID uuid.UUID) (*Message, error) {
	query := fmt.Sprintf(`
		SELECT id, saga_id, created_at, processed_at, type, payload, domain_status, saga_status, outbox_status, version
		FROM %s
		WHERE type = $1 AND saga_id = $2 AND outbox_status = $3
	`, r.table)

	row := r.db.QueryRowContext(ctx, query, r.sagaType, sagaID, StatusCompleted.String())
	return scanMessage(row)
}

func (r *repository) FindReady(ctx context.Context, limit int, sagaStatuses ...saga.Status) ([]*Message, error) {
	query := fmt.Sprintf(`
		SELECT id, saga_id, created_at, processed_at, type, payload, domain_status, saga_status, outbox_status, version
		FROM %s
		WHERE type = $1 AND outbox_status = $2 AND saga_status = ANY($3)
		ORDER BY created_at ASC
		LIMIT $4
	`, r.table)

	rows, err := r.db.QueryContext(ctx, query, r.sagaType, StatusStarted.String(), pq.Array(statusStrings(sagaStatuses)), limit)
	if err != nil {
		return nil, fmt.Errorf("outbox: failed to query ready messages: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		m, err := scanMessageRows(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("outbox: failed iterating ready messages: %w", err)
	}

	return messages, nil
}

func (r *repository) Insert(ctx context.Context, m *Message) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, saga_id, created_at, processed_at, type, payload, domain_status, saga_status, outbox_status, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, r.table)

	_, err := r.db.ExecContext(ctx, query,
		m.ID,
		m.SagaID,
		m.CreatedAt,
		m.ProcessedAt,
		m.Type,
		m.Payload,
		m.DomainStatus,
		m.SagaStatus.String(),
		m.OutboxStatus.String(),
		m.Version,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateMessage
		}
		return fmt.Errorf("outbox: failed to insert message %s: %w", m.ID, err)
	}

	return nil
}

func (r *repository) Update(ctx context.Context, m *Message) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET processed_at = $1, payload = $2, domain_status = $3, saga_status = $4, outbox_status = $5, version = version + 1
		WHERE id = $6 AND version = $7
	`, r.table)

	result, err := r.db.ExecContext(ctx, query,
		m.ProcessedAt,
		m.Payload,
		m.DomainStatus,
		m.SagaStatus.String(),
		m.OutboxStatus.String(),
		m.ID,
		m.Version,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateMessage
		}
		return fmt.Errorf("outbox: failed to update message %s: %w", m.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("outbox: failed to read update result for message %s: %w", m.ID, err)
	}
	if affected == 0 {
		return ErrConcurrentModification
	}

	m.Version++
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row *sql.Row) (*Message, error) {
	m, err := scanFrom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	return m, nil
}

func scanMessageRows(rows *sql.Rows) (*Message, error) {
	return scanFrom(rows)
}

func scanFrom(s rowScanner) (*Message, error) {
	var m Message
	var sagaStatus, outboxStatus string

	err := s.Scan(
		&m.ID,
		&m.SagaID,
		&m.CreatedAt,
		&m.ProcessedAt,
		&m.Type,
		&m.Payload,
		&m.DomainStatus,
		&sagaStatus,
		&outboxStatus,
		&m.Version,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("outbox: failed to scan message: %w", err)
	}

	m.SagaStatus = saga.Status(sagaStatus)
	m.OutboxStatus = Status(outboxStatus)
	return &m, nil
}

func statusStrings(statuses []saga.Status) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, s.String())
	}
	return out
}
