package store

import (
	"context"

	"couture-commerce/internal/models"
)

// AddCartItem adds a variant to a user's cart, merging quantities if the
// line already exists
func (s *Store) AddCartItem(ctx context.Context, userID, variantID int64, quantity int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cart_items (user_id, variant_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, variant_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`,
		userID, variantID, quantity)
	return err
}

// SetCartItemQuantity replaces the quantity of a cart line; zero removes it
func (s *Store) SetCartItemQuantity(ctx context.Context, userID, variantID int64, quantity int) error {
	if quantity <= 0 {
		return s.RemoveCartItem(ctx, userID, variantID)
	}
	_, err := s.db.ExecContext(ctx,
		"UPDATE cart_items SET quantity = $1 WHERE user_id = $2 AND variant_id = $3",
		quantity, userID, variantID)
	return err
}

// RemoveCartItem deletes a cart line
func (s *Store) RemoveCartItem(ctx context.Context, userID, variantID int64) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM cart_items WHERE user_id = $1 AND variant_id = $2",
		userID, variantID)
	return err
}

// GetCartItems retrieves a user's cart
func (s *Store) GetCartItems(ctx context.Context, userID int64) ([]models.CartItem, error) {
	var items []models.CartItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM cart_items WHERE user_id = $1 ORDER BY variant_id", userID)
	return items, err
}
