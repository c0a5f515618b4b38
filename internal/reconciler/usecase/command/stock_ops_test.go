package command_test

import (
	"context"
	"sync"
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

// recordingNotifier captures stock level notifications
type recordingNotifier struct {
	mu      sync.Mutex
	records []invdomain.InventoryRecord
}

func (n *recordingNotifier) StockLevelChanged(_ context.Context, record *invdomain.InventoryRecord) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.records = append(n.records, *record)
}

type stockOpsEnv struct {
	source   *invrepository.MemoryStockSource
	ledger   *repository.MemoryMovementRepository
	notifier *recordingNotifier
	deduct   *command.DeductStockHandler
	add      *command.AddStockHandler
}

func newStockOpsEnv(t *testing.T) *stockOpsEnv {
	t.Helper()

	source := invrepository.NewMemoryStockSource()
	ledger := repository.NewMemoryMovementRepository()
	notifier := &recordingNotifier{}
	locks := lock.NewKeyed()

	return &stockOpsEnv{
		source:   source,
		ledger:   ledger,
		notifier: notifier,
		deduct:   command.NewDeductStockHandler(source, ledger, locks, notifier),
		add:      command.NewAddStockHandler(source, ledger, locks, notifier),
	}
}

func (e *stockOpsEnv) seed(t *testing.T, productID uint, name string, stock, minStock int) {
	t.Helper()
	err := e.source.Upsert(context.Background(), &invdomain.InventoryRecord{
		ProductID:   productID,
		ProductName: name,
		Stock:       stock,
		MinStock:    minStock,
	})
	require.NoError(t, err)
}

func TestDeductStock_RecordsMovement(t *testing.T) {
	env := newStockOpsEnv(t)
	env.seed(t, 1, "Keyboard", 10, 5)

	result := env.deduct.Handle(context.Background(), command.DeductStockCommand{
		ProductID: 1,
		Quantity:  3,
		Reason:    "manual correction",
	})

	require.True(t, result.Success, result.Message)
	assert.Equal(t, 7, result.NewStock)
	assert.Contains(t, result.Message, "Deducted 3 from Keyboard")

	movements, err := env.ledger.FindByProductID(context.Background(), 1, 10, 0)
	require.NoError(t, err)
	require.Len(t, movements, 1)

	m := movements[0]
	assert.Equal(t, domain.MovementTypeSale, m.Type)
	assert.Equal(t, -3, m.Quantity)
	assert.Equal(t, 10, m.BalanceBefore)
	assert.Equal(t, 7, m.BalanceAfter)
	assert.Equal(t, m.BalanceBefore+m.Quantity, m.BalanceAfter)
	assert.Equal(t, "manual correction", m.Reason)
	assert.NotEmpty(t, m.Reference)
}

func TestDeductStock_WalkDownToZero(t *testing.T) {
	env := newStockOpsEnv(t)
	env.seed(t, 1, "Keyboard", 10, 5)

	first := env.deduct.Handle(context.Background(), command.DeductStockCommand{ProductID: 1, Quantity: 3})
	require.True(t, first.Success, first.Message)
	assert.Equal(t, 7, first.NewStock)

	// Deducting the exact remaining stock succeeds
	second := env.deduct.Handle(context.Background(), command.DeductStockCommand{ProductID: 1, Quantity: 7})
	require.True(t, second.Success, second.Message)
	assert.Equal(t, 0, second.NewStock)

	third := env.deduct.Handle(context.Background(), command.DeductStockCommand{ProductID: 1, Quantity: 1})
	require.False(t, third.Success)
	assert.Contains(t, third.Message, "Available: 0, Requested: 1")

	assert.Equal(t, 2, env.ledger.Len())
}

func TestDeductStock_InvalidQuantity(t *testing.T) {
	env := newStockOpsEnv(t)
	env.seed(t, 1, "Keyboard", 10, 5)

	for _, quantity := range []int{0, -4} {
		result := env.deduct.Handle(context.Background(), command.DeductStockCommand{ProductID: 1, Quantity: quantity})
		require.False(t, result.Success)
		assert.Equal(t, "Quantity must be greater than 0", result.Message)
	}
	assert.Zero(t, env.ledger.Len())
}

func TestDeductStock_UnknownProduct(t *testing.T) {
	env := newStockOpsEnv(t)

	result := env.deduct.Handle(context.Background(), command.DeductStockCommand{ProductID: 99, Quantity: 1})

	require.False(t, result.Success)
	assert.Equal(t, "Product 99 not found", result.Message)
}

func TestDeductStock_NotifiesNewStockLevel(t *testing.T) {
	env := newStockOpsEnv(t)
	env.seed(t, 1, "Keyboard", 10, 5)

	result := env.deduct.Handle(context.Background(), command.DeductStockCommand{ProductID: 1, Quantity: 6})
	require.True(t, result.Success, result.Message)

	require.Len(t, env.notifier.records, 1)
	assert.Equal(t, 4, env.notifier.records[0].Stock)
}

func TestAddStock_RecordsMovement(t *testing.T) {
	env := newStockOpsEnv(t)
	env.seed(t, 1, "Keyboard", 4, 5)

	result := env.add.Handle(context.Background(), command.AddStockCommand{
		ProductID: 1,
		Quantity:  20,
		Reason:    "restock",
	})

	require.True(t, result.Success, result.Message)
	assert.Equal(t, 24, result.NewStock)
	assert.Contains(t, result.Message, "Added 20 to Keyboard")

	movements, err := env.ledger.FindByProductID(context.Background(), 1, 10, 0)
	require.NoError(t, err)
	require.Len(t, movements, 1)

	m := movements[0]
	assert.Equal(t, domain.MovementTypePurchase, m.Type)
	assert.Equal(t, 20, m.Quantity)
	assert.Equal(t, 4, m.BalanceBefore)
	assert.Equal(t, 24, m.BalanceAfter)
}

func TestAddStock_InvalidQuantity(t *testing.T) {
	env := newStockOpsEnv(t)
	env.seed(t, 1, "Keyboard", 4, 5)

	result := env.add.Handle(context.Background(), command.AddStockCommand{ProductID: 1, Quantity: -1})
	require.False(t, result.Success)
	assert.Equal(t, "Quantity must be greater than 0", result.Message)
}

func TestBulkAdjust_ContinuesPastFailures(t *testing.T) {
	env := newStockOpsEnv(t)
	env.seed(t, 1, "Keyboard", 10, 5)
	env.seed(t, 2, "Mouse", 2, 5)
	env.seed(t, 3, "Monitor", 7, 5)

	bulk := command.NewBulkAdjustHandler(env.deduct, env.add)

	result := bulk.Handle(context.Background(), command.BulkAdjustCommand{
		Items: []command.BulkAdjustItem{
			{ProductID: 1, Quantity: -3},
			{ProductID: 2, Quantity: -5}, // insufficient
			{ProductID: 3, Quantity: 10},
		},
		Reason: "cycle count",
	})

	require.False(t, result.Success)
	require.Len(t, result.Results, 3)

	assert.True(t, result.Results[0].Success)
	assert.False(t, result.Results[1].Success)
	assert.Contains(t, result.Results[1].Message, "Available: 2, Requested: 5")
	assert.True(t, result.Results[2].Success)

	// Items after the failed one were still applied
	record, err := env.source.FindByProductID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 17, record.Stock)
}

func TestBulkAdjust_AllSucceed(t *testing.T) {
	env := newStockOpsEnv(t)
	env.seed(t, 1, "Keyboard", 10, 5)
	env.seed(t, 2, "Mouse", 10, 5)

	bulk := command.NewBulkAdjustHandler(env.deduct, env.add)

	result := bulk.Handle(context.Background(), command.BulkAdjustCommand{
		Items: []command.BulkAdjustItem{
			{ProductID: 1, Quantity: -2},
			{ProductID: 2, Quantity: 4},
		},
	})

	require.True(t, result.Success)
	for _, outcome := range result.Results {
		assert.True(t, outcome.Success, outcome.Message)
	}
}

func TestBulkAdjust_ZeroQuantityItem(t *testing.T) {
	env := newStockOpsEnv(t)
	env.seed(t, 1, "Keyboard", 10, 5)

	bulk := command.NewBulkAdjustHandler(env.deduct, env.add)

	result := bulk.Handle(context.Background(), command.BulkAdjustCommand{
		Items: []command.BulkAdjustItem{{ProductID: 1, Quantity: 0}},
	})

	require.False(t, result.Success)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "Quantity must not be 0", result.Results[0].Message)
}
