package models

// statusEdges is the fulfillment lifecycle graph. Transitions are monotonic:
// there is no path back to an earlier state, and cancellation is only
// reachable before shipment.
var statusEdges = map[string][]string{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

var paymentEdges = map[string][]string{
	PaymentStatusUnpaid:   {PaymentStatusPaid, PaymentStatusFailed},
	PaymentStatusPaid:     {PaymentStatusRefunded},
	PaymentStatusFailed:   {},
	PaymentStatusRefunded: {},
}

// CanTransition reports whether the fulfillment status may move from one
// state to another. Every write path, including the admin status update,
// must consult this before persisting a change.
func CanTransition(from, to string) bool {
	for _, next := range statusEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanTransitionPayment reports whether the payment status may move from one
// state to another.
func CanTransitionPayment(from, to string) bool {
	for _, next := range paymentEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s is a known fulfillment status.
func ValidStatus(s string) bool {
	_, ok := statusEdges[s]
	return ok
}

// Cancellable reports whether an order in the given fulfillment status may
// still be cancelled by the customer.
func Cancellable(status string) bool {
	return status == OrderStatusPending || status == OrderStatusConfirmed
}
