// Package events publishes order lifecycle notifications after the store
// has committed. Publishing is best effort.
package events

import (
	"context"
	"time"

	"go.uber.org/zap"

	"mynature/internal/logger"
	"mynature/internal/models"
)

const (
	OrderPlaced        = "order.placed"
	OrderStatusChanged = "order.status_changed"
	OrderDeleted       = "order.deleted"
)

type OrderEvent struct {
	Type        string        `json:"type"`
	OrderID     string        `json:"order_id"`
	Status      string        `json:"status,omitempty"`
	TotalAmount *models.Money `json:"total_amount,omitempty"`
	ItemCount   int           `json:"item_count,omitempty"`
	OccurredAt  time.Time     `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}

// LogPublisher writes events to the application log. It is used when no
// topic is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, event OrderEvent) error {
	logger.Log.Info("order event",
		zap.String("type", event.Type),
		zap.String("order_id", event.OrderID),
		zap.String("status", event.Status),
		zap.Time("occurred_at", event.OccurredAt),
	)
	return nil
}
