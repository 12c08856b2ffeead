package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"couture-commerce/internal/models"
	"couture-commerce/internal/store"
	"couture-commerce/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderService handles cart, checkout, cancellation, and the admin status
// path
type OrderService struct {
	store     *store.Store
	publisher EventPublisher
	alerter   *Alerter
	logger    *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(st *store.Store, publisher EventPublisher, alerter *Alerter) *OrderService {
	return &OrderService{
		store:     st,
		publisher: publisher,
		alerter:   alerter,
		logger:    util.GetLogger(),
	}
}

// CheckoutRequest carries the shipping fields collected at checkout
type CheckoutRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Phone      string `json:"phone" binding:"required"`
	Address    string `json:"address" binding:"required"`
	City       string `json:"city" binding:"required"`
	State      string `json:"state" binding:"required"`
	PostalCode string `json:"postal_code" binding:"required"`
}

func (r *CheckoutRequest) shipping() store.ShippingInfo {
	return store.ShippingInfo{
		Name:       r.Name,
		Email:      r.Email,
		Phone:      r.Phone,
		Address:    r.Address,
		City:       r.City,
		State:      r.State,
		PostalCode: r.PostalCode,
	}
}

func (r *CheckoutRequest) validate() error {
	fields := map[string]string{
		"name":        r.Name,
		"email":       r.Email,
		"phone":       r.Phone,
		"address":     r.Address,
		"city":        r.City,
		"state":       r.State,
		"postal_code": r.PostalCode,
	}
	for name, val := range fields {
		if val == "" {
			return fmt.Errorf("%w: %s", ErrMissingShipping, name)
		}
	}
	return nil
}

// Checkout converts the caller's cart into an order
func (s *OrderService) Checkout(ctx context.Context, userID int64, req *CheckoutRequest) (int64, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.Checkout")
	defer span.End()

	if err := req.validate(); err != nil {
		util.CheckoutsFailedTotal.WithLabelValues("missing_shipping").Inc()
		return 0, err
	}

	orderID, err := s.store.Checkout(ctx, userID, req.shipping())
	if err != nil {
		switch {
		case errors.Is(err, store.ErrEmptyCart):
			util.CheckoutsFailedTotal.WithLabelValues("empty_cart").Inc()
		case errors.Is(err, store.ErrInsufficientStock):
			util.CheckoutsFailedTotal.WithLabelValues("insufficient_stock").Inc()
		default:
			util.CheckoutsFailedTotal.WithLabelValues("db_error").Inc()
		}
		return 0, err
	}

	util.CheckoutsTotal.Inc()
	s.logger.Info("Order created",
		zap.Int64("order_id", orderID),
		zap.Int64("user_id", userID))

	order, err := s.store.GetOrderForUser(ctx, orderID, userID)
	if err == nil {
		event := &models.OrderCreatedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderCreated,
				Timestamp: time.Now(),
			},
			OrderID:     orderID,
			UserID:      userID,
			TotalAmount: order.TotalAmount,
			Email:       order.ShipEmail,
		}
		if err := s.publisher.PublishOrderCreated(ctx, event); err != nil {
			s.logger.Warn("Failed to publish OrderCreated event", zap.Error(err))
		}
	}

	return orderID, nil
}

// GetOrder retrieves an order with its items, scoped to the owner
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID int64) (*models.Order, []models.OrderItem, error) {
	order, err := s.store.GetOrderForUser(ctx, orderID, userID)
	if err != nil {
		return nil, nil, err
	}

	items, err := s.store.GetOrderItems(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	return order, items, nil
}

// Cancel cancels an order while it is still cancellable and requests the
// customer notification. The cancellation committing is the durable fact;
// the notification is a side effect that may be lost, in which case a
// critical alert is raised.
func (s *OrderService) Cancel(ctx context.Context, userID, orderID int64) error {
	ctx, span := util.StartSpan(ctx, "OrderService.Cancel")
	defer span.End()

	order, err := s.store.GetOrderForUser(ctx, orderID, userID)
	if err != nil {
		return err
	}

	if err := s.store.CancelOrder(ctx, orderID, userID); err != nil {
		return err
	}

	util.OrdersCancelledTotal.Inc()
	s.logger.Info("Order cancelled",
		zap.Int64("order_id", orderID),
		zap.Int64("user_id", userID))

	event := &models.OrderCancelledEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderCancelled,
			Timestamp: time.Now(),
		},
		OrderID: orderID,
		UserID:  userID,
		Email:   order.ShipEmail,
	}
	if err := s.publisher.PublishOrderCancelled(ctx, event); err != nil {
		s.alerter.Critical(ctx, "cancel-notify",
			"cancellation notification could not be queued", orderID, err)
	}

	return nil
}

// UpdateStatus is the admin status write; it rejects edges outside the
// lifecycle graph
func (s *OrderService) UpdateStatus(ctx context.Context, orderID int64, status string) error {
	return s.store.UpdateOrderStatus(ctx, orderID, status)
}

// AddToCart stages a variant in the caller's cart
func (s *OrderService) AddToCart(ctx context.Context, userID, variantID int64, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("quantity must be at least 1")
	}
	if _, err := s.store.GetVariant(ctx, variantID); err != nil {
		return err
	}
	return s.store.AddCartItem(ctx, userID, variantID, quantity)
}

// SetCartQuantity replaces a cart line's quantity; zero removes the line
func (s *OrderService) SetCartQuantity(ctx context.Context, userID, variantID int64, quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("quantity must not be negative")
	}
	if _, err := s.store.GetVariant(ctx, variantID); err != nil {
		return err
	}
	return s.store.SetCartItemQuantity(ctx, userID, variantID, quantity)
}

// RemoveFromCart removes a cart line
func (s *OrderService) RemoveFromCart(ctx context.Context, userID, variantID int64) error {
	return s.store.RemoveCartItem(ctx, userID, variantID)
}

// GetCart retrieves the caller's cart
func (s *OrderService) GetCart(ctx context.Context, userID int64) ([]models.CartItem, error) {
	return s.store.GetCartItems(ctx, userID)
}

// ListProducts retrieves the catalog
func (s *OrderService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.store.GetProducts(ctx)
}

// ListVariants retrieves the sellable variants of a product
func (s *OrderService) ListVariants(ctx context.Context, productID int64) ([]models.ProductVariant, error) {
	return s.store.GetVariantsByProduct(ctx, productID)
}
