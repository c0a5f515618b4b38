package command_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	invdomain "github.com/tair/stock-reconciler/internal/inventory/domain"
	invrepository "github.com/tair/stock-reconciler/internal/inventory/repository"
	"github.com/tair/stock-reconciler/internal/reconciler/domain"
	"github.com/tair/stock-reconciler/internal/reconciler/repository"
	"github.com/tair/stock-reconciler/internal/reconciler/usecase/command"
	"github.com/tair/stock-reconciler/pkg/lock"
)

type reconcileEnv struct {
	source  *invrepository.MemoryStockSource
	ledger  *repository.MemoryMovementRepository
	tracker *repository.MemoryAdjustmentRepository
	handler *command.ReconcileOrderHandler
}

func newReconcileEnv(t *testing.T) *reconcileEnv {
	t.Helper()

	source := invrepository.NewMemoryStockSource()
	ledger := repository.NewMemoryMovementRepository()
	tracker := repository.NewMemoryAdjustmentRepository()

	handler := command.NewReconcileOrderHandler(source, ledger, tracker, lock.NewKeyed(), nil)

	return &reconcileEnv{source: source, ledger: ledger, tracker: tracker, handler: handler}
}

func (e *reconcileEnv) seed(t *testing.T, productID uint, name string, stock int) {
	t.Helper()
	err := e.source.Upsert(context.Background(), &invdomain.InventoryRecord{
		ProductID:   productID,
		ProductName: name,
		Stock:       stock,
		MinStock:    5,
	})
	require.NoError(t, err)
}

func (e *reconcileEnv) stock(t *testing.T, productID uint) int {
	t.Helper()
	record, err := e.source.FindByProductID(context.Background(), productID)
	require.NoError(t, err)
	return record.Stock
}

func TestReconcile_PendingToCompleted_DeductsLineItems(t *testing.T) {
	env := newReconcileEnv(t)
	env.seed(t, 1, "Keyboard", 50)
	env.seed(t, 2, "Mouse", 30)

	result := env.handler.Handle(context.Background(), command.ReconcileOrderCommand{
		OrderID:        "ord-1",
		OrderNumber:    "1001",
		PreviousStatus: domain.OrderStatusPending,
		NewStatus:      domain.OrderStatusCompleted,
		Items: []domain.OrderLineItem{
			{ProductID: 1, Quantity: 3},
			{ProductID: 2, Quantity: 5},
		},
	})

	require.True(t, result.Success, result.Message)
	assert.Equal(t, 47, env.stock(t, 1))
	assert.Equal(t, 25, env.stock(t, 2))

	movements, err := env.ledger.FindAll(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	for _, m := range movements {
		assert.Equal(t, domain.MovementTypeSale, m.Type)
		assert.Negative(t, m.Quantity)
		assert.Equal(t, m.BalanceBefore+m.Quantity, m.BalanceAfter)
		assert.Equal(t, "Order #1001 completed", m.Reason)
		assert.Equal(t, "ord-1", m.OrderID)
	}

	adjustment, err := env.tracker.FindByOrderID("ord-1")
	require.NoError(t, err)
	require.NotNil(t, adjustment)
	assert.True(t, adjustment.StockAdjusted)
	assert.Equal(t, domain.OrderStatusCompleted, adjustment.LastAdjustedStatus)
	assert.Equal(t, domain.OrderStatusCompleted, adjustment.CurrentStatus)
	assert.False(t, adjustment.AdjustedAt.IsZero())
}

func TestReconcile_CompletedToCancelled_RestoresStock(t *testing.T) {
	env := newReconcileEnv(t)
	env.seed(t, 1, "Keyboard", 47)

	result := env.handler.Handle(context.Background(), command.ReconcileOrderCommand{
		OrderID:        "ord-2",
		OrderNumber:    "1002",
		PreviousStatus: domain.OrderStatusCompleted,
		NewStatus:      domain.OrderStatusCancelled,
		Items:          []domain.OrderLineItem{{ProductID: 1, Quantity: 3}},
	})

	require.True(t, result.Success, result.Message)
	assert.Equal(t, 50, env.stock(t, 1))

	movements, err := env.ledger.FindAll(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, domain.MovementTypePurchase, movements[0].Type)
	assert.Equal(t, 3, movements[0].Quantity)
	assert.Equal(t, "Order #1002 cancelled", movements[0].Reason)
}

func TestReconcile_PendingToCancelled_NoStockEffect(t *testing.T) {
	env := newReconcileEnv(t)
	env.seed(t, 1, "Keyboard", 50)

	result := env.handler.Handle(context.Background(), command.ReconcileOrderCommand{
		OrderID:        "ord-3",
		OrderNumber:    "1003",
		PreviousStatus: domain.OrderStatusPending,
		NewStatus:      domain.OrderStatusCancelled,
		Items:          []domain.OrderLineItem{{ProductID: 1, Quantity: 10}},
	})

	require.True(t, result.Success, result.Message)
	assert.Equal(t, 50, env.stock(t, 1))
	assert.Zero(t, env.source.AdjustCalls)
	assert.Zero(t, env.ledger.Len())

	adjustment, err := env.tracker.FindByOrderID("ord-3")
	require.NoError(t, err)
	require.NotNil(t, adjustment)
	assert.False(t, adjustment.StockAdjusted)
	assert.Equal(t, domain.OrderStatusCancelled, adjustment.CurrentStatus)
}

func TestReconcile_RepeatedEvent_IsIdempotent(t *testing.T) {
	env := newReconcileEnv(t)
	env.seed(t, 1, "Keyboard", 50)

	cmd := command.ReconcileOrderCommand{
		OrderID:        "ord-4",
		OrderNumber:    "1004",
		PreviousStatus: domain.OrderStatusPending,
		NewStatus:      domain.OrderStatusCompleted,
		Items:          []domain.OrderLineItem{{ProductID: 1, Quantity: 3}},
	}

	first := env.handler.Handle(context.Background(), cmd)
	require.True(t, first.Success, first.Message)
	require.Equal(t, 47, env.stock(t, 1))

	second := env.handler.Handle(context.Background(), cmd)
	require.True(t, second.Success, second.Message)
	assert.Contains(t, second.Message, "already adjusted")

	// Stock is deducted exactly once
	assert.Equal(t, 47, env.stock(t, 1))
	assert.Equal(t, 1, env.ledger.Len())
}

func TestReconcile_CancelThenComplete_AdjustsAgain(t *testing.T) {
	env := newReconcileEnv(t)
	env.seed(t, 1, "Keyboard", 50)

	cancel := env.handler.Handle(context.Background(), command.ReconcileOrderCommand{
		OrderID:        "ord-5",
		OrderNumber:    "1005",
		PreviousStatus: domain.OrderStatusPending,
		NewStatus:      domain.OrderStatusCancelled,
		Items:          []domain.OrderLineItem{{ProductID: 1, Quantity: 3}},
	})
	require.True(t, cancel.Success, cancel.Message)

	complete := env.handler.Handle(context.Background(), command.ReconcileOrderCommand{
		OrderID:        "ord-5",
		OrderNumber:    "1005",
		PreviousStatus: domain.OrderStatusCancelled,
		NewStatus:      domain.OrderStatusCompleted,
		Items:          []domain.OrderLineItem{{ProductID: 1, Quantity: 3}},
	})
	require.True(t, complete.Success, complete.Message)
	assert.Equal(t, 47, env.stock(t, 1))
}

func TestReconcile_InsufficientStock_FailsWithoutChanges(t *testing.T) {
	env := newReconcileEnv(t)
	env.seed(t, 1, "Keyboard", 50)
	env.seed(t, 2, "Mouse", 2)

	result := env.handler.Handle(context.Background(), command.ReconcileOrderCommand{
		OrderID:        "ord-6",
		OrderNumber:    "1006",
		PreviousStatus: domain.OrderStatusPending,
		NewStatus:      domain.OrderStatusCompleted,
		Items: []domain.OrderLineItem{
			{ProductID: 1, Quantity: 3},
			{ProductID: 2, Quantity: 5},
		},
	})

	require.False(t, result.Success)
	assert.Contains(t, result.Message, "Available: 2, Requested: 5")

	// Validation happens before any item is applied
	assert.Equal(t, 50, env.stock(t, 1))
	assert.Equal(t, 2, env.stock(t, 2))
	assert.Zero(t, env.ledger.Len())

	adjustment, err := env.tracker.FindByOrderID("ord-6")
	require.NoError(t, err)
	assert.Nil(t, adjustment)
}

func TestReconcile_MidApplyFailure_Compensates(t *testing.T) {
	env := newReconcileEnv(t)
	env.seed(t, 1, "Keyboard", 50)
	env.seed(t, 2, "Mouse", 30)
	env.source.FailAdjustFor[2] = true

	result := env.handler.Handle(context.Background(), command.ReconcileOrderCommand{
		OrderID:        "ord-7",
		OrderNumber:    "1007",
		PreviousStatus: domain.OrderStatusPending,
		NewStatus:      domain.OrderStatusCompleted,
		Items: []domain.OrderLineItem{
			{ProductID: 1, Quantity: 3},
			{ProductID: 2, Quantity: 5},
		},
	})

	require.False(t, result.Success)

	// The deduction applied to product 1 is reversed
	assert.Equal(t, 50, env.stock(t, 1))
	assert.Equal(t, 30, env.stock(t, 2))

	movements, err := env.ledger.FindAll(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, domain.MovementTypeSale, movements[0].Type)
	assert.Equal(t, domain.MovementTypeAdjustment, movements[1].Type)
	assert.Equal(t, "Compensating reversal for order #1007", movements[1].Reason)
	assert.Equal(t, movements[0].Quantity, -movements[1].Quantity)
}

func TestReconcile_InvalidStatus_Fails(t *testing.T) {
	env := newReconcileEnv(t)

	result := env.handler.Handle(context.Background(), command.ReconcileOrderCommand{
		OrderID:     "ord-8",
		OrderNumber: "1008",
		NewStatus:   "shipped",
	})

	require.False(t, result.Success)
	assert.Contains(t, result.Message, "Invalid order status")
}

func TestReconcile_NoOpTransition_Succeeds(t *testing.T) {
	env := newReconcileEnv(t)
	env.seed(t, 1, "Keyboard", 50)

	result := env.handler.Handle(context.Background(), command.ReconcileOrderCommand{
		OrderID:        "ord-9",
		OrderNumber:    "1009",
		PreviousStatus: domain.OrderStatusCompleted,
		NewStatus:      domain.OrderStatusPending,
		Items:          []domain.OrderLineItem{{ProductID: 1, Quantity: 3}},
	})

	require.True(t, result.Success, result.Message)
	assert.Equal(t, 50, env.stock(t, 1))
	assert.Zero(t, env.ledger.Len())

	// No-effect transitions must not create a tracker entry
	adjustment, err := env.tracker.FindByOrderID("ord-9")
	require.NoError(t, err)
	assert.Nil(t, adjustment)
}

func TestReconcile_NoOpDoesNotResetGuard(t *testing.T) {
	env := newReconcileEnv(t)
	env.seed(t, 1, "Keyboard", 50)

	complete := command.ReconcileOrderCommand{
		OrderID:        "ord-11",
		OrderNumber:    "1011",
		PreviousStatus: domain.OrderStatusPending,
		NewStatus:      domain.OrderStatusCompleted,
		Items:          []domain.OrderLineItem{{ProductID: 1, Quantity: 3}},
	}

	first := env.handler.Handle(context.Background(), complete)
	require.True(t, first.Success, first.Message)
	require.Equal(t, 47, env.stock(t, 1))

	// A no-effect transition in between must leave the tracker untouched
	noop := env.handler.Handle(context.Background(), command.ReconcileOrderCommand{
		OrderID:        "ord-11",
		OrderNumber:    "1011",
		PreviousStatus: domain.OrderStatusCompleted,
		NewStatus:      domain.OrderStatusPending,
		Items:          []domain.OrderLineItem{{ProductID: 1, Quantity: 3}},
	})
	require.True(t, noop.Success, noop.Message)

	adjustment, err := env.tracker.FindByOrderID("ord-11")
	require.NoError(t, err)
	require.NotNil(t, adjustment)
	assert.Equal(t, domain.OrderStatusCompleted, adjustment.CurrentStatus)
	assert.Equal(t, domain.OrderStatusCompleted, adjustment.LastAdjustedStatus)

	// Replaying the completion must short-circuit, not deduct a second time
	second := env.handler.Handle(context.Background(), complete)
	require.True(t, second.Success, second.Message)
	assert.Contains(t, second.Message, "already adjusted")
	assert.Equal(t, 47, env.stock(t, 1))
	assert.Equal(t, 1, env.ledger.Len())
}

func TestReconcile_DuplicateLineItems_AreAggregated(t *testing.T) {
	env := newReconcileEnv(t)
	env.seed(t, 1, "Keyboard", 10)

	result := env.handler.Handle(context.Background(), command.ReconcileOrderCommand{
		OrderID:        "ord-10",
		OrderNumber:    "1010",
		PreviousStatus: domain.OrderStatusPending,
		NewStatus:      domain.OrderStatusCompleted,
		Items: []domain.OrderLineItem{
			{ProductID: 1, Quantity: 4},
			{ProductID: 1, Quantity: 4},
		},
	})

	require.True(t, result.Success, result.Message)
	assert.Equal(t, 2, env.stock(t, 1))
	assert.Equal(t, 1, env.ledger.Len())
}
