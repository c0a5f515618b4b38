package command

import (
	"context"
	"fmt"
	"sort"
	"time"

	inventory "github.com/tair/stock-reconciler/internal/inventory/domain"
	"github.com/tair/stock-reconciler/internal/reconciler/domain"
	"github.com/tair/stock-reconciler/pkg/lock"
	"github.com/tair/stock-reconciler/pkg/logger"
)

// ReconcileOrderCommand represents an order status transition to reconcile
type ReconcileOrderCommand struct {
	OrderID        string
	OrderNumber    string
	PreviousStatus string
	NewStatus      string
	Items          []domain.OrderLineItem
}

// ReconcileOrderHandler drives stock levels from order status transitions.
// Completing an order deducts its line items, cancelling a completed order
// restores them, and every other transition leaves stock untouched.
type ReconcileOrderHandler struct {
	source   inventory.StockSource
	ledger   domain.MovementRepository
	tracker  domain.AdjustmentRepository
	locks    *lock.Keyed
	notifier domain.StockLevelNotifier
}

// NewReconcileOrderHandler creates a new reconcile order handler
func NewReconcileOrderHandler(
	source inventory.StockSource,
	ledger domain.MovementRepository,
	tracker domain.AdjustmentRepository,
	locks *lock.Keyed,
	notifier domain.StockLevelNotifier,
) *ReconcileOrderHandler {
	return &ReconcileOrderHandler{
		source:   source,
		ledger:   ledger,
		tracker:  tracker,
		locks:    locks,
		notifier: notifier,
	}
}

// Handle applies the stock effect of one status transition. Failures are
// reported through the result; the caller decides whether to retry.
func (h *ReconcileOrderHandler) Handle(ctx context.Context, cmd ReconcileOrderCommand) *domain.ReconcileResult {
	if cmd.OrderID == "" {
		return &domain.ReconcileResult{Success: false, Message: "Order ID is required"}
	}
	if !domain.IsValidOrderStatus(cmd.NewStatus) {
		return &domain.ReconcileResult{
			Success: false,
			Message: fmt.Sprintf("Invalid order status: %s", cmd.NewStatus),
		}
	}
	if cmd.PreviousStatus != "" && !domain.IsValidOrderStatus(cmd.PreviousStatus) {
		return &domain.ReconcileResult{
			Success: false,
			Message: fmt.Sprintf("Invalid order status: %s", cmd.PreviousStatus),
		}
	}

	adjustment, err := h.tracker.FindByOrderID(cmd.OrderID)
	if err != nil {
		return &domain.ReconcileResult{
			Success: false,
			Message: fmt.Sprintf("Failed to load adjustment record for order %s: %v", cmd.OrderID, err),
		}
	}
	if adjustment != nil &&
		adjustment.LastAdjustedStatus == cmd.NewStatus &&
		adjustment.CurrentStatus == cmd.NewStatus {
		return &domain.ReconcileResult{
			Success: true,
			Message: fmt.Sprintf("Stock already adjusted for order %s status %s", cmd.OrderID, cmd.NewStatus),
		}
	}

	switch {
	case cmd.NewStatus == domain.OrderStatusCompleted &&
		(cmd.PreviousStatus == domain.OrderStatusPending || cmd.PreviousStatus == domain.OrderStatusCancelled):
		return h.applyMovements(ctx, cmd, domain.MovementTypeSale,
			fmt.Sprintf("Order #%s completed", cmd.OrderNumber))

	case cmd.NewStatus == domain.OrderStatusCancelled && cmd.PreviousStatus == domain.OrderStatusCompleted:
		return h.applyMovements(ctx, cmd, domain.MovementTypePurchase,
			fmt.Sprintf("Order #%s cancelled", cmd.OrderNumber))

	case cmd.NewStatus == domain.OrderStatusCancelled && cmd.PreviousStatus == domain.OrderStatusPending:
		return h.recordWithoutMovement(cmd, adjustment)

	default:
		// No stock effect and no tracker write: overwriting the tracker here
		// would clear the guard and let a repeated completion deduct twice.
		return &domain.ReconcileResult{
			Success: true,
			Message: fmt.Sprintf("No stock adjustment required for transition %s to %s",
				cmd.PreviousStatus, cmd.NewStatus),
		}
	}
}

// applyMovements reserves all line items, then commits them. The reserve
// phase validates every item under the product locks so a partial order can
// never reach the commit phase. A commit failure triggers compensating
// reversals for the items already applied.
func (h *ReconcileOrderHandler) applyMovements(ctx context.Context, cmd ReconcileOrderCommand, movementType, reason string) *domain.ReconcileResult {
	totals, productIDs := aggregateLineItems(cmd.Items)
	if len(productIDs) == 0 {
		return h.finishAdjusted(cmd, fmt.Sprintf("Order %s has no line items, nothing to adjust", cmd.OrderID))
	}

	keys := make([]string, len(productIDs))
	for i, id := range productIDs {
		keys[i] = productKey(id)
	}
	h.locks.LockAll(keys)
	defer h.locks.UnlockAll(keys)

	records := make(map[uint]*inventory.InventoryRecord, len(productIDs))
	for _, id := range productIDs {
		record, err := h.source.FindByProductID(ctx, id)
		if err != nil {
			return &domain.ReconcileResult{Success: false, Message: fetchFailure(id, err).Message}
		}
		if movementType == domain.MovementTypeSale && totals[id] > record.Stock {
			return &domain.ReconcileResult{
				Success: false,
				Message: fmt.Sprintf("Insufficient stock for %s. Available: %d, Requested: %d",
					record.ProductName, record.Stock, totals[id]),
			}
		}
		records[id] = record
	}

	applied := []uint{}
	for _, id := range productIDs {
		signed := totals[id]
		if movementType == domain.MovementTypeSale {
			signed = -signed
		}
		if err := h.applyOne(ctx, cmd, records[id], movementType, signed, reason); err != nil {
			h.compensate(ctx, cmd, records, totals, applied, movementType)
			return &domain.ReconcileResult{
				Success: false,
				Message: fmt.Sprintf("Failed to adjust stock for product %d: %v", id, err),
			}
		}
		applied = append(applied, id)
	}

	return h.finishAdjusted(cmd, fmt.Sprintf("Stock adjusted for order %s (%s)", cmd.OrderID, cmd.NewStatus))
}

func (h *ReconcileOrderHandler) applyOne(ctx context.Context, cmd ReconcileOrderCommand, record *inventory.InventoryRecord, movementType string, signed int, reason string) error {
	delta := inventory.StockDelta{
		Type:     movementType,
		Quantity: signed,
		Reason:   reason,
		OrderID:  cmd.OrderID,
	}
	if err := h.source.AdjustStock(ctx, record.ProductID, delta); err != nil {
		return err
	}

	newStock := record.Stock + signed
	movement := &domain.StockMovement{
		ProductID:     record.ProductID,
		Type:          movementType,
		Quantity:      signed,
		BalanceBefore: record.Stock,
		BalanceAfter:  newStock,
		Reason:        reason,
		OrderID:       cmd.OrderID,
		OrderNumber:   cmd.OrderNumber,
		CreatedAt:     time.Now(),
	}
	if err := h.ledger.Append(ctx, movement); err != nil {
		logger.Warn(ctx).
			Err(err).
			Str("order_id", cmd.OrderID).
			Uint("product_id", record.ProductID).
			Msg("Stock adjusted but ledger append failed")
	}

	record.Stock = newStock
	if h.notifier != nil {
		h.notifier.StockLevelChanged(ctx, record)
	}
	return nil
}

// compensate reverses the adjustments already applied for an order whose
// commit phase failed partway through.
func (h *ReconcileOrderHandler) compensate(ctx context.Context, cmd ReconcileOrderCommand, records map[uint]*inventory.InventoryRecord, totals map[uint]int, applied []uint, movementType string) {
	reason := fmt.Sprintf("Compensating reversal for order #%s", cmd.OrderNumber)

	for _, id := range applied {
		signed := totals[id]
		if movementType == domain.MovementTypePurchase {
			signed = -signed
		}
		record := records[id]
		delta := inventory.StockDelta{
			Type:     domain.MovementTypeAdjustment,
			Quantity: signed,
			Reason:   reason,
			OrderID:  cmd.OrderID,
		}
		if err := h.source.AdjustStock(ctx, id, delta); err != nil {
			logger.Error(ctx).
				Err(err).
				Str("order_id", cmd.OrderID).
				Uint("product_id", id).
				Msg("Compensating reversal failed, stock requires manual correction")
			continue
		}

		newStock := record.Stock + signed
		movement := &domain.StockMovement{
			ProductID:     id,
			Type:          domain.MovementTypeAdjustment,
			Quantity:      signed,
			BalanceBefore: record.Stock,
			BalanceAfter:  newStock,
			Reason:        reason,
			OrderID:       cmd.OrderID,
			OrderNumber:   cmd.OrderNumber,
			CreatedAt:     time.Now(),
		}
		if err := h.ledger.Append(ctx, movement); err != nil {
			logger.Warn(ctx).
				Err(err).
				Str("order_id", cmd.OrderID).
				Uint("product_id", id).
				Msg("Compensating reversal applied but ledger append failed")
		}
		record.Stock = newStock
	}
}

func (h *ReconcileOrderHandler) finishAdjusted(cmd ReconcileOrderCommand, message string) *domain.ReconcileResult {
	adjustment := &domain.OrderStockAdjustment{
		OrderID:            cmd.OrderID,
		OrderNumber:        cmd.OrderNumber,
		CurrentStatus:      cmd.NewStatus,
		LastAdjustedStatus: cmd.NewStatus,
		StockAdjusted:      true,
		AdjustedAt:         time.Now(),
	}
	if err := h.tracker.Upsert(adjustment); err != nil {
		return &domain.ReconcileResult{
			Success: false,
			Message: fmt.Sprintf("Stock adjusted but tracking failed for order %s: %v", cmd.OrderID, err),
		}
	}
	return &domain.ReconcileResult{Success: true, Message: message}
}

// recordWithoutMovement handles pending to cancelled: nothing was ever
// deducted, so only the tracker is updated.
func (h *ReconcileOrderHandler) recordWithoutMovement(cmd ReconcileOrderCommand, existing *domain.OrderStockAdjustment) *domain.ReconcileResult {
	adjustment := &domain.OrderStockAdjustment{
		OrderID:            cmd.OrderID,
		OrderNumber:        cmd.OrderNumber,
		CurrentStatus:      cmd.NewStatus,
		LastAdjustedStatus: cmd.NewStatus,
	}
	if existing != nil {
		adjustment.StockAdjusted = existing.StockAdjusted
		adjustment.AdjustedAt = existing.AdjustedAt
	}
	if err := h.tracker.Upsert(adjustment); err != nil {
		return &domain.ReconcileResult{
			Success: false,
			Message: fmt.Sprintf("Failed to track order %s: %v", cmd.OrderID, err),
		}
	}
	return &domain.ReconcileResult{
		Success: true,
		Message: fmt.Sprintf("Order %s cancelled before completion, no stock adjustment needed", cmd.OrderID),
	}
}

// aggregateLineItems sums quantities per product and returns the product ids
// in ascending order so locks are always acquired in the same order.
func aggregateLineItems(items []domain.OrderLineItem) (map[uint]int, []uint) {
	totals := map[uint]int{}
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		totals[item.ProductID] += item.Quantity
	}

	ids := make([]uint, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return totals, ids
}
