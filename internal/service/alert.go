package service

import (
	"context"
	"time"

	"couture-commerce/internal/models"
	"couture-commerce/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AlertPublisher is the alert side channel sink
type AlertPublisher interface {
	PublishAlert(ctx context.Context, event *models.AlertEvent) error
}

// Alerter raises critical alerts for failures with financial consequences:
// log at error level, count in metrics, and publish to the ops alert topic.
// Alerting itself is best effort and never fails the calling operation.
type Alerter struct {
	publisher AlertPublisher
	logger    *zap.Logger
}

// NewAlerter creates an alerter; publisher may be nil (log and metrics only)
func NewAlerter(publisher AlertPublisher) *Alerter {
	return &Alerter{
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// Critical raises a critical alert
func (a *Alerter) Critical(ctx context.Context, component, message string, orderID int64, cause error) {
	fields := []zap.Field{
		zap.String("component", component),
		zap.Int64("order_id", orderID),
	}
	if cause != nil {
		fields = append(fields, zap.Error(cause))
	}
	a.logger.Error("CRITICAL: "+message, fields...)

	util.CriticalAlertsTotal.WithLabelValues(component).Inc()

	if a.publisher == nil {
		return
	}

	detail := ""
	if cause != nil {
		detail = cause.Error()
	}
	event := &models.AlertEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeAlert,
			Timestamp: time.Now(),
		},
		Component: component,
		Message:   message,
		Detail:    detail,
		OrderID:   orderID,
	}
	if err := a.publisher.PublishAlert(ctx, event); err != nil {
		a.logger.Error("Failed to publish alert event", zap.Error(err))
	}
}
