package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	inventory "github.com/tair/stock-reconciler/internal/inventory/domain"
	"github.com/tair/stock-reconciler/internal/reconciler/domain"
	"github.com/tair/stock-reconciler/pkg/lock"
)

// DeductStockCommand represents the command to deduct stock for a product
type DeductStockCommand struct {
	ProductID   uint
	Quantity    int
	Reason      string
	Reference   string
	OrderID     string
	OrderNumber string
}

// DeductStockHandler handles deduct stock commands
type DeductStockHandler struct {
	source   inventory.StockSource
	ledger   domain.MovementRepository
	locks    *lock.Keyed
	notifier domain.StockLevelNotifier
}

// NewDeductStockHandler creates a new deduct stock handler. notifier may be
// nil when no notification sink is configured.
func NewDeductStockHandler(source inventory.StockSource, ledger domain.MovementRepository, locks *lock.Keyed, notifier domain.StockLevelNotifier) *DeductStockHandler {
	return &DeductStockHandler{source: source, ledger: ledger, locks: locks, notifier: notifier}
}

// Handle executes the deduct stock command. Every failure is converted into
// a structured result; no error escapes to the caller.
func (h *DeductStockHandler) Handle(ctx context.Context, cmd DeductStockCommand) *domain.StockOperationResult {
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

	if cmd.Quantity > record.Stock {
		return &domain.StockOperationResult{
			Success: false,
			Message: fmt.Sprintf("Insufficient stock for %s. Available: %d, Requested: %d",
				record.ProductName, record.Stock, cmd.Quantity),
		}
	}

	newStock := record.Stock - cmd.Quantity

	reason := cmd.Reason
	if reason == "" {
		reason = "stock deduction"
	}
	reference := cmd.Reference
	if reference == "" {
		reference = newMovementReference()
	}

	delta := inventory.StockDelta{
		Type:      domain.MovementTypeSale,
		Quantity:  -cmd.Quantity,
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
		Type:          domain.MovementTypeSale,
		Quantity:      -cmd.Quantity,
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

	h.notifyStockLevel(ctx, record, newStock)

	return &domain.StockOperationResult{
		Success:  true,
		Message:  fmt.Sprintf("Deducted %d from %s. New stock: %d", cmd.Quantity, record.ProductName, newStock),
		NewStock: newStock,
	}
}

func (h *DeductStockHandler) notifyStockLevel(ctx context.Context, record *inventory.InventoryRecord, newStock int) {
	if h.notifier == nil {
		return
	}
	updated := *record
	updated.Stock = newStock
	h.notifier.StockLevelChanged(ctx, &updated)
}

// productKey builds the per-product serialization key
func productKey(productID uint) string {
	return "product:" + strconv.FormatUint(uint64(productID), 10)
}

func newMovementReference() string {
	return fmt.Sprintf("MOV-%s", uuid.New().String()[:8])
}

func fetchFailure(productID uint, err error) *domain.StockOperationResult {
	if errors.Is(err, inventory.ErrNotFound) {
		return &domain.StockOperationResult{
			Success: false,
			Message: fmt.Sprintf("Product %d not found", productID),
		}
	}
	return &domain.StockOperationResult{
		Success: false,
		Message: fmt.Sprintf("Failed to fetch product %d: %v", productID, err),
	}
}
