package http_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	invdomain "github.com/tair/stock-reconciler/internal/inventory/domain"
	invrepository "github.com/tair/stock-reconciler/internal/inventory/repository"
	httpDelivery "github.com/tair/stock-reconciler/internal/reconciler/delivery/http"
	"github.com/tair/stock-reconciler/internal/reconciler/domain"
	"github.com/tair/stock-reconciler/internal/reconciler/repository"
	"github.com/tair/stock-reconciler/internal/reconciler/usecase/command"
	"github.com/tair/stock-reconciler/internal/reconciler/usecase/query"
	"github.com/tair/stock-reconciler/pkg/auth"
	"github.com/tair/stock-reconciler/pkg/lock"
)

// wrappingStockSource returns its errors wrapped, the way a remote source
// annotates transport failures around the sentinel.
type wrappingStockSource struct {
	*invrepository.MemoryStockSource
}

func (s *wrappingStockSource) AdjustStock(ctx context.Context, productID uint, delta invdomain.StockDelta) error {
	if err := s.MemoryStockSource.AdjustStock(ctx, productID, delta); err != nil {
		return fmt.Errorf("inventory source: %w", err)
	}
	return nil
}

func newTestRouter(t *testing.T) (*mux.Router, *invrepository.MemoryStockSource) {
	t.Helper()

	memory := invrepository.NewMemoryStockSource()
	source := &wrappingStockSource{MemoryStockSource: memory}
	ledger := repository.NewMemoryMovementRepository()
	tracker := repository.NewMemoryAdjustmentRepository()
	locks := lock.NewKeyed()
	cache := domain.NewAlertCache()

	deduct := command.NewDeductStockHandler(source, ledger, locks, nil)
	add := command.NewAddStockHandler(source, ledger, locks, nil)

	handler := httpDelivery.NewReconcilerHandler(
		command.NewReconcileOrderHandler(source, ledger, tracker, locks, nil),
		deduct,
		add,
		command.NewBulkAdjustHandler(deduct, add),
		query.NewValidateStockHandler(source),
		query.NewCheckAlertsHandler(source, cache),
		query.NewInventoryValueHandler(source),
		query.NewListMovementsHandler(ledger),
		source,
		memory,
	)

	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	return router, memory
}

func adminRequest(t *testing.T, method, target string, body []byte) *http.Request {
	t.Helper()

	token, err := auth.GenerateToken(1, "admin", "admin")
	require.NoError(t, err)

	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestAdjustInventory_UnknownProductIs404(t *testing.T) {
	router, _ := newTestRouter(t)

	// The source wraps the not-found sentinel; the endpoint must still map it
	req := adminRequest(t, http.MethodPost, "/api/inventory/99/adjust",
		[]byte(`{"type":"sale","quantity":-1,"reason":"test"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAdjustInventory_OverdrawIs400(t *testing.T) {
	router, memory := newTestRouter(t)
	require.NoError(t, memory.Upsert(context.Background(), &invdomain.InventoryRecord{
		ProductID:   1,
		ProductName: "Keyboard",
		Stock:       2,
		MinStock:    5,
	}))

	req := adminRequest(t, http.MethodPost, "/api/inventory/1/adjust",
		[]byte(`{"type":"sale","quantity":-5,"reason":"test"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
