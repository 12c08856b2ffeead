package broker

import (
	"context"
	"fmt"

	"couture-commerce/internal/models"
)

// EventPublisher publishes domain events to the order topic and critical
// alerts to the alert topic
type EventPublisher struct {
	orders *Producer
	alerts *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(orders, alerts *Producer) *EventPublisher {
	return &EventPublisher{orders: orders, alerts: alerts}
}

func orderKey(orderID int64) string {
	return fmt.Sprintf("order-%d", orderID)
}

// PublishOrderCreated publishes an OrderCreated event
func (ep *EventPublisher) PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	return ep.orders.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishOrderPaid publishes an OrderPaid event
func (ep *EventPublisher) PublishOrderPaid(ctx context.Context, event *models.OrderPaidEvent) error {
	return ep.orders.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishOrderCancelled publishes an OrderCancelled event
func (ep *EventPublisher) PublishOrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error {
	return ep.orders.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishAlert publishes a critical alert to the ops channel
func (ep *EventPublisher) PublishAlert(ctx context.Context, event *models.AlertEvent) error {
	return ep.alerts.PublishEvent(ctx, event.Component, event)
}
