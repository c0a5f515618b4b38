package query

import (
	"context"
	"fmt"

	inventory "github.com/tair/stock-reconciler/internal/inventory/domain"
	"github.com/tair/stock-reconciler/internal/reconciler/domain"
)

// snapshotBatchSize bounds how many inventory records one page pulls
const snapshotBatchSize = 500

// CheckAlertsQuery optionally narrows the alert check to one product
type CheckAlertsQuery struct {
	ProductID *uint
}

// CheckAlertsHandler recomputes the alert set from the current inventory
// snapshot. Alerts are a projection of stock levels, not stored state.
type CheckAlertsHandler struct {
	source inventory.StockSource
	cache  *domain.AlertCache
}

// NewCheckAlertsHandler creates a new check alerts handler
func NewCheckAlertsHandler(source inventory.StockSource, cache *domain.AlertCache) *CheckAlertsHandler {
	return &CheckAlertsHandler{source: source, cache: cache}
}

// Handle walks the inventory snapshot, classifies every record and replaces
// the cached alert set wholesale. Each check supersedes the last, scoped or
// not.
func (h *CheckAlertsHandler) Handle(ctx context.Context, q CheckAlertsQuery) ([]domain.StockAlert, error) {
	alerts := []domain.StockAlert{}

	offset := 0
	for {
		records, err := h.source.FindAll(ctx, inventory.SnapshotFilter{
			ProductID: q.ProductID,
			Limit:     snapshotBatchSize,
			Offset:    offset,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load inventory snapshot: %w", err)
		}

		for i := range records {
			if alert := domain.ClassifyStock(&records[i]); alert != nil {
				alerts = append(alerts, *alert)
			}
		}

		if len(records) < snapshotBatchSize {
			break
		}
		offset += snapshotBatchSize
	}

	h.cache.Replace(alerts)
	return alerts, nil
}

// Cached returns the alert set from the last computation without touching the
// stock source.
func (h *CheckAlertsHandler) Cached() []domain.StockAlert {
	return h.cache.Snapshot()
}
