package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{OrderStatusPending, OrderStatusConfirmed, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusConfirmed, OrderStatusShipped, true},
		{OrderStatusConfirmed, OrderStatusCancelled, true},
		{OrderStatusShipped, OrderStatusDelivered, true},

		// no skipping forward
		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusPending, OrderStatusDelivered, false},

		// no moving backwards
		{OrderStatusShipped, OrderStatusPending, false},
		{OrderStatusConfirmed, OrderStatusPending, false},
		{OrderStatusDelivered, OrderStatusShipped, false},

		// cancellation is unreachable after shipment
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusCancelled, false},

		// terminal states
		{OrderStatusCancelled, OrderStatusPending, false},
		{OrderStatusCancelled, OrderStatusConfirmed, false},

		{"bogus", OrderStatusConfirmed, false},
		{OrderStatusPending, "bogus", false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestCanTransitionPayment(t *testing.T) {
	assert.True(t, CanTransitionPayment(PaymentStatusUnpaid, PaymentStatusPaid))
	assert.True(t, CanTransitionPayment(PaymentStatusUnpaid, PaymentStatusFailed))
	assert.True(t, CanTransitionPayment(PaymentStatusPaid, PaymentStatusRefunded))

	assert.False(t, CanTransitionPayment(PaymentStatusPaid, PaymentStatusUnpaid))
	assert.False(t, CanTransitionPayment(PaymentStatusFailed, PaymentStatusPaid))
	assert.False(t, CanTransitionPayment(PaymentStatusRefunded, PaymentStatusPaid))
}

func TestCancellable(t *testing.T) {
	assert.True(t, Cancellable(OrderStatusPending))
	assert.True(t, Cancellable(OrderStatusConfirmed))
	assert.False(t, Cancellable(OrderStatusShipped))
	assert.False(t, Cancellable(OrderStatusDelivered))
	assert.False(t, Cancellable(OrderStatusCancelled))
}
