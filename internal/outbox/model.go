package outbox

import (
	"encoding/json"
	"time"

	"orderflow/internal/saga"

	"github.com/google/uuid"
)

// Status is the publish state of an outbox row.
type Status string

const (
	StatusStarted   Status = "STARTED"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

func (s Status) String() string {
	return string(s)
}

// Message is one outgoing event persisted in the same transaction as the
// domain mutation that produced it. The (Type, SagaID, SagaStatus) triple is
// unique per table, so a logical saga slot is occupied by at most one row.
// Version backs the compare-and-swap in Repository.Update.
type Message struct {
	ID           uuid.UUID
	SagaID       uuid.UUID
	CreatedAt    time.Time
	ProcessedAt  *time.Time
	Type         string
	Payload      json.RawMessage
	DomainStatus string
	SagaStatus   saga.Status
	OutboxStatus Status
	Version      int
}

// NewMessage builds a fresh outbox row for the given saga slot.
func NewMessage(sagaType string, sagaID uuid.UUID, payload json.RawMessage, domainStatus string, sagaStatus saga.Status, outboxStatus Status) *Message {
	return &Message{
		ID:           uuid.New(),
		SagaID:       sagaID,
		CreatedAt:    time.Now().UTC(),
		Type:         sagaType,
		Payload:      payload,
		DomainStatus: domainStatus,
		SagaStatus:   sagaStatus,
		OutboxStatus: outboxStatus,
	}
}

// Advance moves the row to a new saga slot and stamps the processing time.
func (m *Message) Advance(domainStatus string, sagaStatus saga.Status) {
	now := time.Now().UTC()
	m.ProcessedAt = &now
	m.DomainStatus = domainStatus
	m.SagaStatus = sagaStatus
}
