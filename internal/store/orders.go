package store

import (
	"context"
	"database/sql"
	"fmt"

	"couture-commerce/internal/models"
)

// ShippingInfo carries the contact and address fields captured at checkout
type ShippingInfo struct {
	Name       string
	Email      string
	Phone      string
	Address    string
	City       string
	State      string
	PostalCode string
}

type checkoutLine struct {
	VariantID int64   `db:"variant_id"`
	Quantity  int     `db:"quantity"`
	Price     float64 `db:"price"`
	Stock     int     `db:"stock"`
}

// Checkout converts a user's cart into an order in a single transaction:
// it locks the variant rows, validates stock, computes the total from the
// authoritative variant prices, creates the order with shipping fields and
// its line items, decrements stock with audit-log entries, and empties the
// cart. Any failure rolls the whole conversion back.
func (s *Store) Checkout(ctx context.Context, userID int64, shipping ShippingInfo) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	// Deterministic lock order (by variant id) avoids deadlocks between
	// concurrent checkouts sharing variants.
	var lines []checkoutLine
	err = tx.SelectContext(ctx, &lines, `
		SELECT ci.variant_id, ci.quantity, pv.price, pv.stock
		FROM cart_items ci
		JOIN product_variants pv ON pv.id = ci.variant_id
		WHERE ci.user_id = $1
		ORDER BY ci.variant_id
		FOR UPDATE OF pv`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to lock cart lines: %w", err)
	}
	if len(lines) == 0 {
		return 0, ErrEmptyCart
	}

	var total float64
	for _, line := range lines {
		if line.Stock < line.Quantity {
			return 0, fmt.Errorf("%w: variant %d has %d left, %d requested",
				ErrInsufficientStock, line.VariantID, line.Stock, line.Quantity)
		}
		total += line.Price * float64(line.Quantity)
	}

	var orderID int64
	err = tx.GetContext(ctx, &orderID, `
		INSERT INTO orders (user_id, total_amount, status, payment_status,
			ship_name, ship_email, ship_phone, ship_address, ship_city, ship_state, ship_postal_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		userID, total, models.OrderStatusPending, models.PaymentStatusUnpaid,
		shipping.Name, shipping.Email, shipping.Phone, shipping.Address,
		shipping.City, shipping.State, shipping.PostalCode)
	if err != nil {
		return 0, fmt.Errorf("failed to create order: %w", err)
	}

	for _, line := range lines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, variant_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4)`,
			orderID, line.VariantID, line.Quantity, line.Price)
		if err != nil {
			return 0, fmt.Errorf("failed to create order item: %w", err)
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE product_variants
			SET stock = stock - $1, updated_at = NOW()
			WHERE id = $2 AND stock >= $1`,
			line.Quantity, line.VariantID)
		if err != nil {
			return 0, fmt.Errorf("failed to decrement stock: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return 0, fmt.Errorf("%w: variant %d", ErrInsufficientStock, line.VariantID)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO inventory_log (variant_id, delta, reason, order_id)
			VALUES ($1, $2, $3, $4)`,
			line.VariantID, -line.Quantity, models.InventoryReasonCheckout, orderID)
		if err != nil {
			return 0, fmt.Errorf("failed to log inventory change: %w", err)
		}
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id = $1", userID); err != nil {
		return 0, fmt.Errorf("failed to empty cart: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return orderID, nil
}

// GetOrderForUser retrieves an order scoped to its owner
func (s *Store) GetOrderForUser(ctx context.Context, orderID, userID int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order,
		"SELECT * FROM orders WHERE id = $1 AND user_id = $2", orderID, userID)
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderItems retrieves all line items for an order
func (s *Store) GetOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	return items, err
}

// AttachGatewayOrder binds a freshly created gateway order to an internal
// order, conditional on the order still being unpaid and owned by the caller
func (s *Store) AttachGatewayOrder(ctx context.Context, orderID, userID int64, razorpayOrderID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET razorpay_order_id = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3 AND payment_status = $4`,
		razorpayOrderID, orderID, userID, models.PaymentStatusUnpaid)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	order, err := s.GetOrderForUser(ctx, orderID, userID)
	if err != nil {
		return err
	}
	if order.PaymentStatus != models.PaymentStatusUnpaid {
		return ErrAlreadyPaid
	}
	return ErrOrderNotFound
}

// MarkOrderPaid applies the idempotent paid transition: payment_status
// flips to paid, status to confirmed, and the gateway payment id and
// signature are stored. Returns true only on the first application; a
// second call for an already-paid order is a no-op returning false.
func (s *Store) MarkOrderPaid(ctx context.Context, orderID, userID int64, razorpayOrderID, paymentID, signature string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET payment_status = $1, status = $2,
			razorpay_payment_id = $3, razorpay_signature = $4, updated_at = NOW()
		WHERE id = $5 AND user_id = $6 AND razorpay_order_id = $7 AND payment_status = $8`,
		models.PaymentStatusPaid, models.OrderStatusConfirmed,
		paymentID, signature, orderID, userID, razorpayOrderID, models.PaymentStatusUnpaid)
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return true, nil
	}

	order, err := s.GetOrderForUser(ctx, orderID, userID)
	if err != nil {
		return false, err
	}
	if order.PaymentStatus == models.PaymentStatusPaid {
		return false, nil
	}
	return false, ErrOrderNotFound
}

// CancelOrder performs the conditional cancellation transition and restores
// the stock decremented at checkout, all in one transaction
func (s *Store) CancelOrder(ctx context.Context, orderID, userID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var status string
	err = tx.GetContext(ctx, &status,
		"SELECT status FROM orders WHERE id = $1 AND user_id = $2 FOR UPDATE",
		orderID, userID)
	if err == sql.ErrNoRows {
		return ErrOrderNotFound
	}
	if err != nil {
		return err
	}

	if status == models.OrderStatusCancelled {
		return ErrAlreadyCancelled
	}
	if !models.Cancellable(status) {
		return ErrNotCancellable
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2",
		models.OrderStatusCancelled, orderID)
	if err != nil {
		return err
	}

	var items []models.OrderItem
	if err := tx.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY variant_id", orderID); err != nil {
		return err
	}

	for _, item := range items {
		_, err = tx.ExecContext(ctx, `
			UPDATE product_variants
			SET stock = stock + $1, updated_at = NOW()
			WHERE id = $2`,
			item.Quantity, item.VariantID)
		if err != nil {
			return fmt.Errorf("failed to restore stock: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO inventory_log (variant_id, delta, reason, order_id)
			VALUES ($1, $2, $3, $4)`,
			item.VariantID, item.Quantity, models.InventoryReasonCancel, orderID)
		if err != nil {
			return fmt.Errorf("failed to log inventory change: %w", err)
		}
	}

	return tx.Commit()
}

// UpdateOrderStatus is the admin-only status write. It accepts only known
// statuses and rejects edges outside the lifecycle graph, including a
// confirmed transition for an order that was never paid.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int64, newStatus string) error {
	if !models.ValidStatus(newStatus) {
		return ErrInvalidTransition
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var order models.Order
	err = tx.GetContext(ctx, &order,
		"SELECT * FROM orders WHERE id = $1 FOR UPDATE", orderID)
	if err == sql.ErrNoRows {
		return ErrOrderNotFound
	}
	if err != nil {
		return err
	}

	if !models.CanTransition(order.Status, newStatus) {
		return ErrInvalidTransition
	}
	if newStatus == models.OrderStatusConfirmed && order.PaymentStatus != models.PaymentStatusPaid {
		return ErrInvalidTransition
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2",
		newStatus, orderID)
	if err != nil {
		return err
	}

	return tx.Commit()
}
