package store

import (
	"context"
	"time"

	"couture-commerce/internal/models"
)

// ListReconcileCandidates retrieves orders still unpaid that have a gateway
// order bound and were created after the cutoff. Bounding the window caps
// gateway API load; older unpaid orders count as abandoned.
func (s *Store) ListReconcileCandidates(ctx context.Context, cutoff time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders, `
		SELECT * FROM orders
		WHERE payment_status = $1
		  AND razorpay_order_id IS NOT NULL
		  AND created_at > $2
		ORDER BY created_at`,
		models.PaymentStatusUnpaid, cutoff)
	return orders, err
}

// StartReconcileRun records the sweep heartbeat and returns the run id
func (s *Store) StartReconcileRun(ctx context.Context) (int64, error) {
	var id int64
	err := s.db.GetContext(ctx, &id,
		"INSERT INTO reconcile_runs (started_at) VALUES (NOW()) RETURNING id")
	return id, err
}

// FinishReconcileRun stores the aggregate counts for a completed sweep
func (s *Store) FinishReconcileRun(ctx context.Context, runID int64, checked, confirmed, errs int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE reconcile_runs
		SET finished_at = NOW(), checked = $1, confirmed = $2, errors = $3
		WHERE id = $4`,
		checked, confirmed, errs, runID)
	return err
}

// LastReconcileRun returns the most recent sweep record, or nil if the
// sweep has never run
func (s *Store) LastReconcileRun(ctx context.Context) (*models.ReconcileRun, error) {
	var runs []models.ReconcileRun
	err := s.db.SelectContext(ctx, &runs,
		"SELECT * FROM reconcile_runs ORDER BY started_at DESC LIMIT 1")
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return &runs[0], nil
}
