package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"couture-commerce/internal/models"
	"couture-commerce/internal/store"
	"couture-commerce/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const paymentLockTTL = 30 * time.Second

// PaymentService handles gateway order creation and client-reported
// payment verification
type PaymentService struct {
	store     PaymentStore
	gateway   Gateway
	locks     Locker
	publisher EventPublisher
	alerter   *Alerter
	currency  string
	logger    *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(store PaymentStore, gw Gateway, locks Locker, publisher EventPublisher, alerter *Alerter, currency string) *PaymentService {
	return &PaymentService{
		store:     store,
		gateway:   gw,
		locks:     locks,
		publisher: publisher,
		alerter:   alerter,
		currency:  currency,
		logger:    util.GetLogger(),
	}
}

// PaymentSession is the descriptor the browser checkout widget needs
type PaymentSession struct {
	Key             string `json:"key"`
	RazorpayOrderID string `json:"razorpay_order_id"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	OrderID         int64  `json:"order_id"`
}

// VerifyPaymentRequest is the client-reported completion payload
type VerifyPaymentRequest struct {
	OrderID           int64  `json:"order_id" binding:"required"`
	RazorpayOrderID   string `json:"razorpay_order_id" binding:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	RazorpaySignature string `json:"razorpay_signature" binding:"required"`
}

// CreatePayment opens a gateway order for an unpaid order owned by the
// caller and binds its id. A per-order advisory lock keeps two browser
// tabs from opening duplicate gateway orders for the same order.
func (ps *PaymentService) CreatePayment(ctx context.Context, userID, orderID int64) (*PaymentSession, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.CreatePayment")
	defer span.End()

	lockKey := fmt.Sprintf("payattempt:%d", orderID)
	acquired, err := ps.locks.AcquireLock(ctx, lockKey, paymentLockTTL)
	if err != nil {
		// lock store down: proceed unlocked rather than block checkout
		ps.logger.Warn("Payment lock unavailable", zap.Error(err))
	} else if !acquired {
		return nil, ErrPaymentInFlight
	} else {
		defer func() {
			if err := ps.locks.ReleaseLock(ctx, lockKey); err != nil {
				ps.logger.Warn("Failed to release payment lock", zap.Error(err))
			}
		}()
	}

	order, err := ps.store.GetOrderForUser(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus != models.PaymentStatusUnpaid {
		return nil, fmt.Errorf("order %d: %w", orderID, store.ErrAlreadyPaid)
	}

	amount := models.MinorUnits(order.TotalAmount)

	start := time.Now()
	gwOrder, err := ps.gateway.CreateOrder(ctx, amount, ps.currency, strconv.FormatInt(orderID, 10))
	util.GatewayRequestDuration.WithLabelValues("create_order").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	if err := ps.store.AttachGatewayOrder(ctx, orderID, userID, gwOrder.ID); err != nil {
		return nil, err
	}

	util.PaymentIntentsTotal.Inc()
	ps.logger.Info("Gateway order created",
		zap.Int64("order_id", orderID),
		zap.String("razorpay_order_id", gwOrder.ID),
		zap.Int64("amount", amount))

	return &PaymentSession{
		Key:             ps.gateway.KeyID(),
		RazorpayOrderID: gwOrder.ID,
		Amount:          amount,
		Currency:        ps.currency,
		OrderID:         orderID,
	}, nil
}

// VerifyPayment checks the client-reported completion signature and, on
// match, applies the idempotent paid transition. Re-verification of an
// already-paid order is a successful no-op.
func (ps *PaymentService) VerifyPayment(ctx context.Context, userID int64, req *VerifyPaymentRequest) error {
	ctx, span := util.StartSpan(ctx, "PaymentService.VerifyPayment")
	defer span.End()

	if !ps.gateway.VerifySignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		util.PaymentsRejectedTotal.Inc()
		ps.logger.Warn("Payment signature rejected",
			zap.Int64("order_id", req.OrderID),
			zap.String("razorpay_order_id", req.RazorpayOrderID))
		return ErrSignatureMismatch
	}

	applied, err := ps.store.MarkOrderPaid(ctx, req.OrderID, userID,
		req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature)
	if err != nil {
		ps.alerter.Critical(ctx, "payment-verify",
			"verified payment could not be recorded", req.OrderID, err)
		return err
	}
	if !applied {
		ps.logger.Info("Paid transition already applied",
			zap.Int64("order_id", req.OrderID))
		return nil
	}

	util.PaymentsVerifiedTotal.WithLabelValues("verify").Inc()
	ps.logger.Info("Order confirmed paid",
		zap.Int64("order_id", req.OrderID),
		zap.String("razorpay_payment_id", req.RazorpayPaymentID))

	order, err := ps.store.GetOrderForUser(ctx, req.OrderID, userID)
	if err != nil {
		return nil
	}
	event := &models.OrderPaidEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderPaid,
			Timestamp: time.Now(),
		},
		OrderID:           req.OrderID,
		UserID:            userID,
		TotalAmount:       order.TotalAmount,
		RazorpayPaymentID: req.RazorpayPaymentID,
		Email:             order.ShipEmail,
		Source:            "verify",
	}
	if err := ps.publisher.PublishOrderPaid(ctx, event); err != nil {
		ps.logger.Warn("Failed to publish OrderPaid event", zap.Error(err))
	}

	return nil
}
