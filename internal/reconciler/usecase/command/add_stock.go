package command

import (
	"context"
	"fmt"
	"time"

	inventory "github.com/tair/stock-reconciler/internal/inventory/domain"
	"github.com/tair/stock-reconciler/internal/reconciler/domain"
	"github.com/tair/stock-reconciler/pkg/lock"
)

// AddStockCommand represents the command to add stock for a product
type AddStockCommand struct {
	ProductID   uint
	Quantity    int
	Reason      string
	Reference   string
	OrderID     string
	OrderNumber string
}

// AddStockHandler handles add stock commands
type AddStockHandler struct {
	source   inventory.StockSource
	ledger   domain.MovementRepository
	locks    *lock.Keyed
	notifier domain.StockLevelNotifier
}

// NewAddStockHandler creates a new add stock handler
func NewAddStockHandler(source inventory.StockSource, ledger domain.MovementRepository, locks *lock.Keyed, notifier domain.StockLevelNotifier) *AddStockHandler {
	return &AddStockHandler{source: source, ledger: ledger, locks: locks, notifier: notifier}
}

// Handle executes the add stock command
func (h *AddStockHandler) Handle(ctx context.Context, cmd AddStockCommand) *domain.StockOperationResult {
	if cmd.Quantity <= 0 {
		return &domain.StockOperationResult{
			Success: false,
			Message: "Quantity must be greater than 0",
		}
	}

	key := productKey(cmd.ProductID)
	h.locks.Lock(key)
	defer h.locks.Unlock(key)

	record, err := h.source.FindByProductID(ctx, cmd.ProductID)
	if err != nil {
		return fetchFailure(cmd.ProductID, err)
	}

	newStock := record.Stock + cmd.Quantity

	reason := cmd.Reason
	if reason == "" {
		reason = "stock addition"
	}
	reference := cmd.Reference
	if reference == "" {
		reference = newMovementReference()
	}

	delta := inventory.StockDelta{
		Type:      domain.MovementTypePurchase,
		Quantity:  cmd.Quantity,
		Reason:    reason,
		Reference: reference,
		OrderID:   cmd.OrderID,
	}
	if err := h.source.AdjustStock(ctx, cmd.ProductID, delta); err != nil {
		return &domain.StockOperationResult{
			Success: false,
			Message: fmt.Sprintf("Stock update rejected for %s: %v", record.ProductName, err),
		}
	}

	movement := &domain.StockMovement{
		ProductID:     cmd.ProductID,
		Type:          domain.MovementTypePurchase,
		Quantity:      cmd.Quantity,
		BalanceBefore: record.Stock,
		BalanceAfter:  newStock,
		Reason:        reason,
		Reference:     reference,
		OrderID:       cmd.OrderID,
		OrderNumber:   cmd.OrderNumber,
		CreatedAt:     time.Now(),
	}
	if err := h.ledger.Append(ctx, movement); err != nil {
		return &domain.StockOperationResult{
			Success: false,
			Message: fmt.Sprintf("Stock updated for %s but movement could not be recorded: %v", record.ProductName, err),
		}
	}

	// Restocking clears stale low-stock alerts the same way deductions raise them
	if h.notifier != nil {
		updated := *record
		updated.Stock = newStock
		h.notifier.StockLevelChanged(ctx, &updated)
	}

	return &domain.StockOperationResult{
		Success:  true,
		Message:  fmt.Sprintf("Added %d to %s. New stock: %d", cmd.Quantity, record.ProductName, newStock),
		NewStock: newStock,
	}
}
