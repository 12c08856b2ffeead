package store

import "errors"

// Sentinel errors separating user-correctable failures from unexpected
// ones. The API layer maps these onto distinct status codes.
var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrOrderNotFound     = errors.New("order not found")
	ErrAlreadyPaid       = errors.New("order already paid")
	ErrAlreadyCancelled  = errors.New("order already cancelled")
	ErrNotCancellable    = errors.New("order can no longer be cancelled")
	ErrInvalidTransition = errors.New("illegal status transition")
	ErrVariantNotFound   = errors.New("product variant not found")
)
