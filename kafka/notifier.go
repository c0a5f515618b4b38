package kafka

import (
	"context"

	inventory "github.com/tair/stock-reconciler/internal/inventory/domain"
	"github.com/tair/stock-reconciler/internal/reconciler/domain"
	"github.com/tair/stock-reconciler/pkg/logger"
)

// AlertNotifier publishes a stock alert event whenever a mutation leaves a
// product at or below its threshold. Publishing is best effort: a broker
// failure is logged and never propagated to the stock mutation.
type AlertNotifier struct {
	publisher *Publisher
}

// NewAlertNotifier creates a new alert notifier
func NewAlertNotifier(publisher *Publisher) *AlertNotifier {
	return &AlertNotifier{publisher: publisher}
}

// StockLevelChanged implements domain.StockLevelNotifier
func (n *AlertNotifier) StockLevelChanged(ctx context.Context, record *inventory.InventoryRecord) {
	alert := domain.ClassifyStock(record)
	if alert == nil {
		return
	}

	event := StockAlertEvent{
		ProductID:    alert.ProductID,
		ProductName:  alert.ProductName,
		CurrentStock: alert.CurrentStock,
		MinStock:     alert.MinStock,
		AlertType:    alert.Type,
		Severity:     alert.Severity,
	}
	if err := n.publisher.PublishStockAlert(ctx, event); err != nil {
		logger.Warn(ctx).
			Err(err).
			Uint("product_id", alert.ProductID).
			Str("alert_type", alert.Type).
			Msg("Failed to publish stock alert")
	}
}
