package service

import (
	"context"
	"errors"
	"time"

	"couture-commerce/internal/gateway"
	"couture-commerce/internal/models"
)

// Service-level sentinel errors
var (
	ErrSignatureMismatch = errors.New("payment signature mismatch")
	ErrPaymentInFlight   = errors.New("payment attempt already in progress")
	ErrMissingShipping   = errors.New("missing shipping field")
	ErrGateway           = errors.New("payment gateway error")
)

// PaymentStore is the order persistence needed by the payment flow
type PaymentStore interface {
	GetOrderForUser(ctx context.Context, orderID, userID int64) (*models.Order, error)
	AttachGatewayOrder(ctx context.Context, orderID, userID int64, razorpayOrderID string) error
	MarkOrderPaid(ctx context.Context, orderID, userID int64, razorpayOrderID, paymentID, signature string) (bool, error)
}

// ReconcileStore is the order persistence needed by the sweep
type ReconcileStore interface {
	ListReconcileCandidates(ctx context.Context, cutoff time.Time) ([]models.Order, error)
	StartReconcileRun(ctx context.Context) (int64, error)
	FinishReconcileRun(ctx context.Context, runID int64, checked, confirmed, errs int) error
	LastReconcileRun(ctx context.Context) (*models.ReconcileRun, error)
	MarkOrderPaid(ctx context.Context, orderID, userID int64, razorpayOrderID, paymentID, signature string) (bool, error)
}

// Gateway abstracts the payment gateway client
type Gateway interface {
	KeyID() string
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*gateway.Order, error)
	FetchPayments(ctx context.Context, gatewayOrderID string) ([]gateway.Payment, error)
	SignPayment(gatewayOrderID, paymentID string) string
	VerifySignature(gatewayOrderID, paymentID, signature string) bool
}

// Locker provides short advisory locks shared across instances
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}

// EventPublisher publishes domain events and alerts
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
	PublishOrderPaid(ctx context.Context, event *models.OrderPaidEvent) error
	PublishOrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error
	PublishAlert(ctx context.Context, event *models.AlertEvent) error
}
