package query

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	inventory "github.com/tair/stock-reconciler/internal/inventory/domain"
)

// ProductValue is the valuation of a single product position
type ProductValue struct {
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	Stock       int             `json:"stock"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Value       decimal.Decimal `json:"value"`
}

// InventoryValue is the total valuation of the inventory
type InventoryValue struct {
	TotalValue   decimal.Decimal `json:"total_value"`
	ProductCount int             `json:"product_count"`
	Items        []ProductValue  `json:"items"`
}

// InventoryValueHandler computes the monetary value of current stock
type InventoryValueHandler struct {
	source inventory.StockSource
}

// NewInventoryValueHandler creates a new inventory value handler
func NewInventoryValueHandler(source inventory.StockSource) *InventoryValueHandler {
	return &InventoryValueHandler{source: source}
}

// Handle sums stock times unit cost across the whole inventory
func (h *InventoryValueHandler) Handle(ctx context.Context) (*InventoryValue, error) {
	result := &InventoryValue{
		TotalValue: decimal.Zero,
		Items:      []ProductValue{},
	}

	offset := 0
	for {
		records, err := h.source.FindAll(ctx, inventory.SnapshotFilter{
			Limit:  snapshotBatchSize,
			Offset: offset,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load inventory snapshot: %w", err)
		}

		for i := range records {
			record := &records[i]
			value := record.UnitCost.Mul(decimal.NewFromInt(int64(record.Stock)))
			result.Items = append(result.Items, ProductValue{
				ProductID:   record.ProductID,
				ProductName: record.ProductName,
				Stock:       record.Stock,
				UnitCost:    record.UnitCost,
				Value:       value,
			})
			result.TotalValue = result.TotalValue.Add(value)
		}

		if len(records) < snapshotBatchSize {
			break
		}
		offset += snapshotBatchSize
	}

	result.ProductCount = len(result.Items)
	return result, nil
}
