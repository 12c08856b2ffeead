package service

import (
	"context"
	"time"

	"couture-commerce/internal/gateway"
	"couture-commerce/internal/models"
	"couture-commerce/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReconcileService re-derives payment truth from the gateway for orders
// whose local payment status may be stale: the self-healing path for lost
// or undelivered payment confirmations. Safe to run arbitrarily often; an
// already-paid order is never regressed because the paid transition only
// fires while the order is unpaid.
type ReconcileService struct {
	store     ReconcileStore
	gateway   Gateway
	publisher EventPublisher
	alerter   *Alerter
	lookback  time.Duration
	logger    *zap.Logger
}

// NewReconcileService creates a new reconciliation service
func NewReconcileService(store ReconcileStore, gw Gateway, publisher EventPublisher, alerter *Alerter, lookback time.Duration) *ReconcileService {
	return &ReconcileService{
		store:     store,
		gateway:   gw,
		publisher: publisher,
		alerter:   alerter,
		lookback:  lookback,
		logger:    util.GetLogger(),
	}
}

// Summary is the aggregate result of one sweep
type Summary struct {
	Checked   int `json:"checked"`
	Confirmed int `json:"confirmed"`
	Errors    int `json:"errors"`
}

// Run executes one reconciliation sweep. Per-order failures are counted
// and alerted but never abort the sweep.
func (rs *ReconcileService) Run(ctx context.Context) (Summary, error) {
	ctx, span := util.StartSpan(ctx, "ReconcileService.Run")
	defer span.End()

	util.ReconcileRunsTotal.Inc()

	runID, err := rs.store.StartReconcileRun(ctx)
	if err != nil {
		return Summary{}, err
	}

	cutoff := time.Now().Add(-rs.lookback)
	candidates, err := rs.store.ListReconcileCandidates(ctx, cutoff)
	if err != nil {
		return Summary{}, err
	}

	var summary Summary
	for i := range candidates {
		summary.Checked++
		if rs.reconcileOrder(ctx, &candidates[i], &summary) {
			summary.Confirmed++
		}
	}

	if err := rs.store.FinishReconcileRun(ctx, runID,
		summary.Checked, summary.Confirmed, summary.Errors); err != nil {
		rs.logger.Warn("Failed to record reconcile run", zap.Error(err))
	}

	rs.logger.Info("Reconcile sweep finished",
		zap.Int("checked", summary.Checked),
		zap.Int("confirmed", summary.Confirmed),
		zap.Int("errors", summary.Errors))

	return summary, nil
}

// LastRun returns the most recent sweep record, or nil before the first run
func (rs *ReconcileService) LastRun(ctx context.Context) (*models.ReconcileRun, error) {
	return rs.store.LastReconcileRun(ctx)
}

// reconcileOrder checks one candidate against the gateway ledger and
// reports whether it applied the paid transition
func (rs *ReconcileService) reconcileOrder(ctx context.Context, order *models.Order, summary *Summary) bool {
	gatewayOrderID := order.RazorpayOrderID.String

	start := time.Now()
	payments, err := rs.gateway.FetchPayments(ctx, gatewayOrderID)
	util.GatewayRequestDuration.WithLabelValues("fetch_payments").Observe(time.Since(start).Seconds())
	if err != nil {
		summary.Errors++
		util.ReconcileErrorsTotal.Inc()
		rs.alerter.Critical(ctx, "reconcile",
			"gateway payment lookup failed during sweep", order.ID, err)
		return false
	}

	var captured *gateway.Payment
	for i := range payments {
		if payments[i].Status == gateway.PaymentStatusCaptured {
			captured = &payments[i]
			break
		}
	}
	if captured == nil {
		return false
	}

	// Same transition as client verification; the sweep derives the
	// signature itself so every paid order carries a verifiable one.
	signature := rs.gateway.SignPayment(gatewayOrderID, captured.ID)
	applied, err := rs.store.MarkOrderPaid(ctx, order.ID, order.UserID,
		gatewayOrderID, captured.ID, signature)
	if err != nil {
		summary.Errors++
		util.ReconcileErrorsTotal.Inc()
		rs.alerter.Critical(ctx, "reconcile",
			"captured payment could not be recorded", order.ID, err)
		return false
	}
	if !applied {
		// lost the race with a concurrent client verification; fine
		return false
	}

	util.PaymentsVerifiedTotal.WithLabelValues("reconcile").Inc()
	rs.logger.Info("Reconciled missed payment",
		zap.Int64("order_id", order.ID),
		zap.String("razorpay_payment_id", captured.ID))

	event := &models.OrderPaidEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderPaid,
			Timestamp: time.Now(),
		},
		OrderID:           order.ID,
		UserID:            order.UserID,
		TotalAmount:       order.TotalAmount,
		RazorpayPaymentID: captured.ID,
		Email:             order.ShipEmail,
		Source:            "reconcile",
	}
	if err := rs.publisher.PublishOrderPaid(ctx, event); err != nil {
		rs.logger.Warn("Failed to publish OrderPaid event", zap.Error(err))
	}

	return true
}
