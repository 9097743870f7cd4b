package order

import (
	"orderflow/internal/message"
	"orderflow/internal/saga"
)

// sagaStatusFor maps an order state onto the saga coordinate that outbox
// rows are stamped with after that state is reached.
func sagaStatusFor(status Status) saga.Status {
	switch status {
	case StatusPaid:
		return saga.StatusProcessing
	case StatusApproved:
		return saga.StatusSucceeded
	case StatusCancelling:
		return saga.StatusCompensating
	case StatusCancelled:
		return saga.StatusCompensated
	default:
		return saga.StatusStarted
	}
}

// rollbackSagaStatuses lists the saga statuses a payment-outbox row may
// hold when a failure response with the given payment status arrives.
// COMPLETED responses compensate a freshly started saga, CANCELLED
// confirms a refund mid-flight, FAILED can hit either phase.
func rollbackSagaStatuses(status message.PaymentStatus) []saga.Status {
	switch status {
	case message.PaymentStatusCompleted:
		return []saga.Status{saga.StatusStarted}
	case message.PaymentStatusCancelled:
		return []saga.Status{saga.StatusProcessing}
	default:
		return []saga.Status{saga.StatusStarted, saga.StatusProcessing}
	}
}
