package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"couture-commerce/internal/broker"
	"couture-commerce/internal/models"
	"couture-commerce/internal/service"
	"couture-commerce/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// DedupStore tracks already-handled event ids so at-least-once delivery
// does not produce duplicate emails
type DedupStore interface {
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// Notifier consumes order events and sends the corresponding customer
// emails. A lost email never blocks or undoes the order transition that
// requested it; it only raises a critical alert.
type Notifier struct {
	consumer *broker.Consumer
	mailer   *Mailer
	dedup    DedupStore
	alerter  *service.Alerter
	logger   *zap.Logger
}

// NewNotifier creates a notification worker
func NewNotifier(consumer *broker.Consumer, mailer *Mailer, dedup DedupStore, alerter *service.Alerter) *Notifier {
	return &Notifier{
		consumer: consumer,
		mailer:   mailer,
		dedup:    dedup,
		alerter:  alerter,
		logger:   util.GetLogger(),
	}
}

// Start consumes until the context is cancelled
func (n *Notifier) Start(ctx context.Context) error {
	n.logger.Info("Starting notification worker")
	return n.consumer.StartConsuming(ctx, n.handleMessage)
}

// Stop closes the underlying consumer
func (n *Notifier) Stop() error {
	n.logger.Info("Stopping notification worker")
	return n.consumer.Close()
}

func (n *Notifier) handleMessage(ctx context.Context, msg kafka.Message) error {
	var base models.BaseEvent
	if err := json.Unmarshal(msg.Value, &base); err != nil {
		// malformed message: commit and move on, retrying cannot help
		n.logger.Error("Failed to unmarshal event", zap.Error(err))
		return nil
	}

	processed, err := n.dedup.IsEventProcessed(ctx, base.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		return nil
	}

	switch base.EventType {
	case models.EventTypeOrderPaid:
		var event models.OrderPaidEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			n.logger.Error("Failed to unmarshal OrderPaid event", zap.Error(err))
			return nil
		}
		n.sendConfirmation(ctx, &event)

	case models.EventTypeOrderCancelled:
		var event models.OrderCancelledEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			n.logger.Error("Failed to unmarshal OrderCancelled event", zap.Error(err))
			return nil
		}
		n.sendCancellation(ctx, &event)
	}

	if err := n.dedup.MarkEventProcessed(ctx, base.EventID, base.EventType); err != nil {
		n.logger.Error("Failed to mark event processed", zap.Error(err))
	}
	return nil
}

func (n *Notifier) sendConfirmation(ctx context.Context, event *models.OrderPaidEvent) {
	subject := fmt.Sprintf("Your order #%d is confirmed", event.OrderID)
	body := fmt.Sprintf(
		"We have received your payment of %.2f. Your order #%d is confirmed and our atelier has begun preparing it.",
		event.TotalAmount, event.OrderID)

	if err := n.mailer.Send(ctx, event.Email, subject, body); err != nil {
		n.alerter.Critical(ctx, "notify",
			"order confirmation email failed", event.OrderID, err)
		return
	}
	util.NotificationsSentTotal.WithLabelValues("confirmation").Inc()
}

func (n *Notifier) sendCancellation(ctx context.Context, event *models.OrderCancelledEvent) {
	subject := fmt.Sprintf("Your order #%d has been cancelled", event.OrderID)
	body := fmt.Sprintf(
		"Order #%d was cancelled as requested. Any payment already captured will be refunded to the original method.",
		event.OrderID)

	if err := n.mailer.Send(ctx, event.Email, subject, body); err != nil {
		n.alerter.Critical(ctx, "notify",
			"cancellation email failed", event.OrderID, err)
		return
	}
	util.NotificationsSentTotal.WithLabelValues("cancellation").Inc()
}
