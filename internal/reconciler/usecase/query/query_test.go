package query_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	invdomain "github.com/tair/stock-reconciler/internal/inventory/domain"
	invrepository "github.com/tair/stock-reconciler/internal/inventory/repository"
	"github.com/tair/stock-reconciler/internal/reconciler/domain"
	"github.com/tair/stock-reconciler/internal/reconciler/repository"
	"github.com/tair/stock-reconciler/internal/reconciler/usecase/query"
)

func seedSource(t *testing.T, records ...invdomain.InventoryRecord) *invrepository.MemoryStockSource {
	t.Helper()
	source := invrepository.NewMemoryStockSource()
	for i := range records {
		require.NoError(t, source.Upsert(context.Background(), &records[i]))
	}
	return source
}

func TestValidateStock_ExactMatchIsValid(t *testing.T) {
	source := seedSource(t, invdomain.InventoryRecord{ProductID: 1, ProductName: "Keyboard", Stock: 10, MinStock: 5})
	handler := query.NewValidateStockHandler(source)

	result := handler.Handle(context.Background(), query.ValidateStockQuery{ProductID: 1, Quantity: 10})

	require.True(t, result.IsValid)
	assert.Equal(t, 10, result.AvailableStock)
	assert.Equal(t, 10, result.RequestedQuantity)
	assert.Zero(t, result.Shortfall)
}

func TestValidateStock_ShortfallOfOne(t *testing.T) {
	source := seedSource(t, invdomain.InventoryRecord{ProductID: 1, ProductName: "Keyboard", Stock: 10, MinStock: 5})
	handler := query.NewValidateStockHandler(source)

	result := handler.Handle(context.Background(), query.ValidateStockQuery{ProductID: 1, Quantity: 11})

	require.False(t, result.IsValid)
	assert.Equal(t, 1, result.Shortfall)
	assert.Contains(t, result.Message, "Available: 10, Requested: 11")
}

func TestValidateStock_InvalidQuantity(t *testing.T) {
	source := seedSource(t, invdomain.InventoryRecord{ProductID: 1, ProductName: "Keyboard", Stock: 10, MinStock: 5})
	handler := query.NewValidateStockHandler(source)

	result := handler.Handle(context.Background(), query.ValidateStockQuery{ProductID: 1, Quantity: 0})

	require.False(t, result.IsValid)
	assert.Equal(t, "Quantity must be greater than 0", result.Message)
}

func TestValidateStock_UnknownProductFailsClosed(t *testing.T) {
	source := seedSource(t)
	handler := query.NewValidateStockHandler(source)

	result := handler.Handle(context.Background(), query.ValidateStockQuery{ProductID: 42, Quantity: 1})

	require.False(t, result.IsValid)
	assert.Equal(t, "Product 42 not found", result.Message)
}

func TestCheckAlerts_ClassifiesTiers(t *testing.T) {
	source := seedSource(t,
		invdomain.InventoryRecord{ProductID: 1, ProductName: "Healthy", Stock: 50, MinStock: 5},
		invdomain.InventoryRecord{ProductID: 2, ProductName: "Low", Stock: 5, MinStock: 5},
		invdomain.InventoryRecord{ProductID: 3, ProductName: "Gone", Stock: 0, MinStock: 5},
	)
	cache := domain.NewAlertCache()
	handler := query.NewCheckAlertsHandler(source, cache)

	alerts, err := handler.Handle(context.Background(), query.CheckAlertsQuery{})
	require.NoError(t, err)
	require.Len(t, alerts, 2)

	byProduct := map[uint]domain.StockAlert{}
	for _, alert := range alerts {
		byProduct[alert.ProductID] = alert
	}

	low := byProduct[2]
	assert.Equal(t, domain.AlertTypeLowStock, low.Type)
	assert.Equal(t, domain.SeverityWarning, low.Severity)

	gone := byProduct[3]
	assert.Equal(t, domain.AlertTypeOutOfStock, gone.Type)
	assert.Equal(t, domain.SeverityCritical, gone.Severity)

	// The cache holds the same computation
	assert.Equal(t, alerts, handler.Cached())
}

func TestCheckAlerts_ReplacesPreviousSet(t *testing.T) {
	source := seedSource(t,
		invdomain.InventoryRecord{ProductID: 1, ProductName: "Item", Stock: 0, MinStock: 5},
	)
	cache := domain.NewAlertCache()
	handler := query.NewCheckAlertsHandler(source, cache)

	first, err := handler.Handle(context.Background(), query.CheckAlertsQuery{})
	require.NoError(t, err)
	require.Len(t, first, 1)

	// Restock and recompute: the stale alert disappears
	require.NoError(t, source.Upsert(context.Background(), &invdomain.InventoryRecord{
		ID: 1, ProductID: 1, ProductName: "Item", Stock: 100, MinStock: 5,
	}))

	second, err := handler.Handle(context.Background(), query.CheckAlertsQuery{})
	require.NoError(t, err)
	assert.Empty(t, second)
	assert.Empty(t, handler.Cached())
}

func TestCheckAlerts_ScopedToProduct(t *testing.T) {
	source := seedSource(t,
		invdomain.InventoryRecord{ProductID: 1, ProductName: "Low", Stock: 2, MinStock: 5},
		invdomain.InventoryRecord{ProductID: 2, ProductName: "AlsoLow", Stock: 1, MinStock: 5},
	)
	cache := domain.NewAlertCache()
	handler := query.NewCheckAlertsHandler(source, cache)

	productID := uint(2)
	alerts, err := handler.Handle(context.Background(), query.CheckAlertsQuery{ProductID: &productID})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, uint(2), alerts[0].ProductID)

	// A scoped check still replaces the whole cached set
	assert.Equal(t, alerts, handler.Cached())
}

func TestInventoryValue_SumsStockTimesUnitCost(t *testing.T) {
	source := seedSource(t,
		invdomain.InventoryRecord{ProductID: 1, ProductName: "Keyboard", Stock: 10, UnitCost: decimal.RequireFromString("19.99")},
		invdomain.InventoryRecord{ProductID: 2, ProductName: "Mouse", Stock: 3, UnitCost: decimal.RequireFromString("7.50")},
		invdomain.InventoryRecord{ProductID: 3, ProductName: "Empty", Stock: 0, UnitCost: decimal.RequireFromString("99.00")},
	)
	handler := query.NewInventoryValueHandler(source)

	value, err := handler.Handle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, value.ProductCount)
	assert.True(t, value.TotalValue.Equal(decimal.RequireFromString("222.40")),
		"expected 222.40, got %s", value.TotalValue)

	require.Len(t, value.Items, 3)
	assert.True(t, value.Items[0].Value.Equal(decimal.RequireFromString("199.90")))
	assert.True(t, value.Items[2].Value.IsZero())
}

func TestListMovements_PagesInAppendOrder(t *testing.T) {
	ledger := repository.NewMemoryMovementRepository()
	for i := 0; i < 5; i++ {
		require.NoError(t, ledger.Append(context.Background(), &domain.StockMovement{
			ProductID: 1,
			Type:      domain.MovementTypeSale,
			Quantity:  -1,
		}))
	}
	handler := query.NewListMovementsHandler(ledger)

	page, err := handler.Handle(context.Background(), query.ListMovementsQuery{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, uint(3), page[0].ID)
	assert.Equal(t, uint(4), page[1].ID)
}

func TestListMovements_FiltersByProduct(t *testing.T) {
	ledger := repository.NewMemoryMovementRepository()
	require.NoError(t, ledger.Append(context.Background(), &domain.StockMovement{ProductID: 1, Type: domain.MovementTypeSale, Quantity: -1}))
	require.NoError(t, ledger.Append(context.Background(), &domain.StockMovement{ProductID: 2, Type: domain.MovementTypeSale, Quantity: -1}))

	handler := query.NewListMovementsHandler(ledger)

	productID := uint(2)
	page, err := handler.Handle(context.Background(), query.ListMovementsQuery{ProductID: &productID})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, uint(2), page[0].ProductID)
}
