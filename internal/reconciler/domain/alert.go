package domain

import (
	"context"
	"sync"

	inventory "github.com/tair/stock-reconciler/internal/inventory/domain"
)

// Alert types and severities
const (
	AlertTypeLowStock   = "low_stock"
	AlertTypeOutOfStock = "out_of_stock"

	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// StockAlert is a derived, ephemeral classification of one product's stock
// level. Alerts are recomputed wholesale; they are never persisted.
type StockAlert struct {
	ProductID    uint   `json:"product_id"`
	ProductName  string `json:"product_name"`
	CurrentStock int    `json:"current_stock"`
	MinStock     int    `json:"min_stock"`
	Type         string `json:"type"`
	Severity     string `json:"severity"`
}

// ClassifyStock returns the alert for an inventory record, or nil when the
// stock level is healthy.
func ClassifyStock(record *inventory.InventoryRecord) *StockAlert {
	alert := &StockAlert{
		ProductID:    record.ProductID,
		ProductName:  record.ProductName,
		CurrentStock: record.Stock,
		MinStock:     record.MinStock,
	}

	switch {
	case record.Stock == 0:
		alert.Type = AlertTypeOutOfStock
		alert.Severity = SeverityCritical
	case record.Stock <= record.MinStock:
		alert.Type = AlertTypeLowStock
		alert.Severity = SeverityWarning
	default:
		return nil
	}
	return alert
}

// AlertCache holds the most recent alert computation. Each check replaces the
// whole set; the cache is injectable so tests run with isolated state.
type AlertCache struct {
	mu     sync.RWMutex
	alerts []StockAlert
}

func NewAlertCache() *AlertCache {
	return &AlertCache{}
}

// Replace swaps the cached alert set for the newly computed one
func (c *AlertCache) Replace(alerts []StockAlert) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alerts = alerts
}

// Snapshot returns a copy of the cached alert set
func (c *AlertCache) Snapshot() []StockAlert {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]StockAlert, len(c.alerts))
	copy(out, c.alerts)
	return out
}

// StockLevelNotifier receives fire-and-forget notifications after stock
// mutations. Implementations must not fail the mutation.
type StockLevelNotifier interface {
	StockLevelChanged(ctx context.Context, record *inventory.InventoryRecord)
}
