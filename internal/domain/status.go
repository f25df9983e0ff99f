package domain

// OrderStatus is the customer-facing order lifecycle.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusApproved   OrderStatus = "approved"
	OrderStatusRejected   OrderStatus = "rejected"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// IsValid checks if the order status is valid
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending,
		OrderStatusProcessing,
		OrderStatusApproved,
		OrderStatusRejected,
		OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status ends the payment flow.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusApproved, OrderStatusRejected, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// Rank orders statuses along the reconciliation progression. Webhook
// deliveries arrive at-least-once with no ordering guarantee, so a
// transition that would lower the rank is skipped.
func (s OrderStatus) Rank() int {
	switch s {
	case OrderStatusPending:
		return 0
	case OrderStatusProcessing:
		return 1
	case OrderStatusApproved, OrderStatusRejected, OrderStatusCancelled:
		return 2
	default:
		return 0
	}
}

// CanTransitionTo checks if a status transition is allowed under the
// monotonicity guard. Re-applying the current status is allowed (a
// redelivered callback is a harmless overwrite); leaving a terminal
// status, or moving backward in rank, is not.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return true
	}
	if s.IsTerminal() {
		return false
	}
	return next.Rank() >= s.Rank()
}

// MapPaymentStatus maps the provider's payment status vocabulary to the
// internal order status. Unrecognized statuses degrade to pending
// rather than failing the handler.
func MapPaymentStatus(paymentStatus string) OrderStatus {
	switch paymentStatus {
	case "approved":
		return OrderStatusApproved
	case "rejected", "cancelled":
		return OrderStatusRejected
	case "pending", "in_process", "authorized", "in_mediation":
		return OrderStatusProcessing
	case "refunded", "charged_back":
		return OrderStatusCancelled
	default:
		return OrderStatusPending
	}
}
