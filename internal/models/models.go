package models

import (
	"database/sql"
	"time"
)

// Product represents a gown or accessory in the catalog
type Product struct {
	ID        int64     `db:"id" json:"id"`
	SKU       string    `db:"sku" json:"sku"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ProductVariant is a sellable size/color combination of a product.
// Price is in major currency units, quantized to 2 decimals.
type ProductVariant struct {
	ID        int64     `db:"id" json:"id"`
	ProductID int64     `db:"product_id" json:"product_id"`
	Size      string    `db:"size" json:"size"`
	Color     string    `db:"color" json:"color"`
	Price     float64   `db:"price" json:"price"`
	Stock     int       `db:"stock" json:"stock"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CartItem is a staged line in a user's cart, consumed at checkout
type CartItem struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	VariantID int64     `db:"variant_id" json:"variant_id"`
	Quantity  int       `db:"quantity" json:"quantity"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Order is the durable record of a single checkout
type Order struct {
	ID                int64          `db:"id" json:"id"`
	UserID            int64          `db:"user_id" json:"user_id"`
	TotalAmount       float64        `db:"total_amount" json:"total_amount"`
	Status            string         `db:"status" json:"status"`
	PaymentStatus     string         `db:"payment_status" json:"payment_status"`
	RazorpayOrderID   sql.NullString `db:"razorpay_order_id" json:"razorpay_order_id,omitempty"`
	RazorpayPaymentID sql.NullString `db:"razorpay_payment_id" json:"razorpay_payment_id,omitempty"`
	RazorpaySignature sql.NullString `db:"razorpay_signature" json:"-"`
	ShipName          string         `db:"ship_name" json:"ship_name"`
	ShipEmail         string         `db:"ship_email" json:"ship_email"`
	ShipPhone         string         `db:"ship_phone" json:"ship_phone"`
	ShipAddress       string         `db:"ship_address" json:"ship_address"`
	ShipCity          string         `db:"ship_city" json:"ship_city"`
	ShipState         string         `db:"ship_state" json:"ship_state"`
	ShipPostalCode    string         `db:"ship_postal_code" json:"ship_postal_code"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// OrderItem snapshots a cart line at checkout time
type OrderItem struct {
	ID        int64   `db:"id" json:"id"`
	OrderID   int64   `db:"order_id" json:"order_id"`
	VariantID int64   `db:"variant_id" json:"variant_id"`
	Quantity  int     `db:"quantity" json:"quantity"`
	UnitPrice float64 `db:"unit_price" json:"unit_price"`
}

// InventoryChange is an append-only audit row for every stock adjustment
type InventoryChange struct {
	ID        int64     `db:"id" json:"id"`
	VariantID int64     `db:"variant_id" json:"variant_id"`
	Delta     int       `db:"delta" json:"delta"`
	Reason    string    `db:"reason" json:"reason"`
	OrderID   int64     `db:"order_id" json:"order_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ReconcileRun records one execution of the reconciliation sweep
type ReconcileRun struct {
	ID         int64        `db:"id" json:"id"`
	StartedAt  time.Time    `db:"started_at" json:"started_at"`
	FinishedAt sql.NullTime `db:"finished_at" json:"finished_at"`
	Checked    int          `db:"checked" json:"checked"`
	Confirmed  int          `db:"confirmed" json:"confirmed"`
	Errors     int          `db:"errors" json:"errors"`
}

// Fulfillment statuses
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// Payment statuses
const (
	PaymentStatusUnpaid   = "unpaid"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// Inventory change reasons
const (
	InventoryReasonCheckout = "checkout"
	InventoryReasonCancel   = "cancel"
)

// ProcessedEvent for consumer-side idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
