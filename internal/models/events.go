package models

import "time"

// Event types
const (
	EventTypeOrderCreated   = "ORDER_CREATED"
	EventTypeOrderPaid      = "ORDER_PAID"
	EventTypeOrderCancelled = "ORDER_CANCELLED"
	EventTypeAlert          = "CRITICAL_ALERT"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderCreatedEvent published when checkout produces an order
type OrderCreatedEvent struct {
	BaseEvent
	OrderID     int64   `json:"order_id"`
	UserID      int64   `json:"user_id"`
	TotalAmount float64 `json:"total_amount"`
	Email       string  `json:"email"`
}

// OrderPaidEvent published on the first successful paid transition,
// whether via client verification or the reconciliation sweep
type OrderPaidEvent struct {
	BaseEvent
	OrderID           int64   `json:"order_id"`
	UserID            int64   `json:"user_id"`
	TotalAmount       float64 `json:"total_amount"`
	RazorpayPaymentID string  `json:"razorpay_payment_id"`
	Email             string  `json:"email"`
	Source            string  `json:"source"` // "verify" or "reconcile"
}

// OrderCancelledEvent published when a customer cancels an order
type OrderCancelledEvent struct {
	BaseEvent
	OrderID int64  `json:"order_id"`
	UserID  int64  `json:"user_id"`
	Email   string `json:"email"`
}

// AlertEvent is the critical-alert side channel for failures with
// financial consequences
type AlertEvent struct {
	BaseEvent
	Component string `json:"component"`
	Message   string `json:"message"`
	Detail    string `json:"detail"`
	OrderID   int64  `json:"order_id,omitempty"`
}
