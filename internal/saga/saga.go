package saga

import "context"

// Status tracks a saga instance through the outbox tables.
type Status string

const (
	StatusStarted      Status = "STARTED"
	StatusFailed       Status = "FAILED"
	StatusSucceeded    Status = "SUCCEEDED"
	StatusProcessing   Status = "PROCESSING"
	StatusCompensating Status = "COMPENSATING"
	StatusCompensated  Status = "COMPENSATED"
)

func (s Status) String() string {
	return string(s)
}

// OrderSagaName is the type value stamped on every outbox message that
// belongs to the order processing flow.
const OrderSagaName = "OrderProcessingSaga"

// Step is one hop of the saga. Process advances the flow on a success
// signal, Rollback compensates previously committed local state on a
// failure or cancellation signal. Implementations must be safe to invoke
// any number of times for the same message.
type Step[T any] interface {
	Process(ctx context.Context, response T) error
	Rollback(ctx context.Context, response T) error
}
