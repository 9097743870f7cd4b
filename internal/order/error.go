package order

import "errors"

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrRestaurantNotFound = errors.New("restaurant not found")

	// ErrValidation marks a rejected order request: bad pricing, inactive
	// restaurant, unknown product.
	ErrValidation = errors.New("order validation failed")

	// ErrInvalidTransition marks a state-machine violation. It signals a
	// programming error or corrupted data, never a retryable condition.
	ErrInvalidTransition = errors.New("invalid order status transition")

	// ErrSagaInconsistent means an outbox row that must exist by
	// construction is missing. The compensation graph is broken; this is
	// never swallowed.
	ErrSagaInconsistent = errors.New("saga state inconsistent: expected outbox row missing")
)
