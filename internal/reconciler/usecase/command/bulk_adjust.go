package command

import (
	"context"

	"github.com/tair/stock-reconciler/internal/reconciler/domain"
)

// BulkAdjustCommand applies one stock change to many products
type BulkAdjustCommand struct {
	Items     []BulkAdjustItem
	Reason    string
	Reference string
}

// BulkAdjustItem is one product change within a bulk command. Positive
// quantities add stock, negative quantities deduct it.
type BulkAdjustItem struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// BulkAdjustHandler fans a bulk command out to the single-product handlers.
// It never stops at a failed item: every item is attempted and reported.
type BulkAdjustHandler struct {
	deduct *DeductStockHandler
	add    *AddStockHandler
}

// NewBulkAdjustHandler creates a new bulk adjust handler
func NewBulkAdjustHandler(deduct *DeductStockHandler, add *AddStockHandler) *BulkAdjustHandler {
	return &BulkAdjustHandler{deduct: deduct, add: add}
}

// Handle applies every item and aggregates the outcomes. The overall result
// succeeds only when every item succeeded.
func (h *BulkAdjustHandler) Handle(ctx context.Context, cmd BulkAdjustCommand) *domain.BulkResult {
	result := &domain.BulkResult{
		Success: true,
		Results: make([]domain.BulkOperationOutcome, 0, len(cmd.Items)),
	}

	for _, item := range cmd.Items {
		var op *domain.StockOperationResult
		switch {
		case item.Quantity < 0:
			op = h.deduct.Handle(ctx, DeductStockCommand{
				ProductID: item.ProductID,
				Quantity:  -item.Quantity,
				Reason:    cmd.Reason,
				Reference: cmd.Reference,
			})
		case item.Quantity > 0:
			op = h.add.Handle(ctx, AddStockCommand{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Reason:    cmd.Reason,
				Reference: cmd.Reference,
			})
		default:
			op = &domain.StockOperationResult{
				Success: false,
				Message: "Quantity must not be 0",
			}
		}

		result.Results = append(result.Results, domain.BulkOperationOutcome{
			ProductID: item.ProductID,
			Success:   op.Success,
			Message:   op.Message,
		})
		if !op.Success {
			result.Success = false
		}
	}

	return result
}
