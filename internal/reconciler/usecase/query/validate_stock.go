package query

import (
	"context"
	"errors"
	"fmt"

	inventory "github.com/tair/stock-reconciler/internal/inventory/domain"
	"github.com/tair/stock-reconciler/internal/reconciler/domain"
)

// ValidateStockQuery asks whether a quantity can be served for a product
type ValidateStockQuery struct {
	ProductID uint
	Quantity  int
}

// ValidateStockHandler handles stock validation queries
type ValidateStockHandler struct {
	source inventory.StockSource
}

// NewValidateStockHandler creates a new validate stock handler
func NewValidateStockHandler(source inventory.StockSource) *ValidateStockHandler {
	return &ValidateStockHandler{source: source}
}

// Handle checks availability without mutating anything. When the stock source
// cannot be reached the validation fails closed.
func (h *ValidateStockHandler) Handle(ctx context.Context, q ValidateStockQuery) *domain.StockValidationResult {
	if q.Quantity <= 0 {
		return &domain.StockValidationResult{
			IsValid:           false,
			RequestedQuantity: q.Quantity,
			Message:           "Quantity must be greater than 0",
		}
	}

	record, err := h.source.FindByProductID(ctx, q.ProductID)
	if err != nil {
		message := fmt.Sprintf("Failed to fetch product %d: %v", q.ProductID, err)
		if errors.Is(err, inventory.ErrNotFound) {
			message = fmt.Sprintf("Product %d not found", q.ProductID)
		}
		return &domain.StockValidationResult{
			IsValid:           false,
			RequestedQuantity: q.Quantity,
			Message:           message,
		}
	}

	if q.Quantity > record.Stock {
		return &domain.StockValidationResult{
			IsValid:           false,
			AvailableStock:    record.Stock,
			RequestedQuantity: q.Quantity,
			Shortfall:         q.Quantity - record.Stock,
			Message: fmt.Sprintf("Insufficient stock for %s. Available: %d, Requested: %d",
				record.ProductName, record.Stock, q.Quantity),
		}
	}

	return &domain.StockValidationResult{
		IsValid:           true,
		AvailableStock:    record.Stock,
		RequestedQuantity: q.Quantity,
		Message:           fmt.Sprintf("Stock available for %s", record.ProductName),
	}
}
