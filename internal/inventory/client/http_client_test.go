package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/stock-reconciler/internal/inventory/client"
	"github.com/tair/stock-reconciler/internal/inventory/domain"
)

func TestFindByProductID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/inventory/product/7", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"product_id":   7,
				"product_name": "Keyboard",
				"stock":        12,
				"min_stock":    5,
			},
		})
	}))
	defer server.Close()

	c := client.NewStockSourceClient(server.URL)

	record, err := c.FindByProductID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, uint(7), record.ProductID)
	assert.Equal(t, "Keyboard", record.ProductName)
	assert.Equal(t, 12, record.Stock)
}

func TestFindByProductID_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   "Inventory record not found",
		})
	}))
	defer server.Close()

	c := client.NewStockSourceClient(server.URL)

	_, err := c.FindByProductID(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAdjustStock_SendsDelta(t *testing.T) {
	var received domain.StockDelta
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/inventory/7/adjust", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	}))
	defer server.Close()

	c := client.NewStockSourceClient(server.URL)

	err := c.AdjustStock(context.Background(), 7, domain.StockDelta{Quantity: -3, Reason: "Order #1001 completed"})
	require.NoError(t, err)
	assert.Equal(t, -3, received.Quantity)
	assert.Equal(t, "Order #1001 completed", received.Reason)
}

func TestAdjustStock_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   "insufficient stock",
		})
	}))
	defer server.Close()

	c := client.NewStockSourceClient(server.URL)

	err := c.AdjustStock(context.Background(), 7, domain.StockDelta{Quantity: -99})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient stock")
}

func TestFindAll_BareArraySnapshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("low_stock"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": []map[string]interface{}{
				{"product_id": 1, "product_name": "Keyboard", "stock": 2, "min_stock": 5},
			},
		})
	}))
	defer server.Close()

	c := client.NewStockSourceClient(server.URL)

	records, err := c.FindAll(context.Background(), domain.SnapshotFilter{LowStock: true})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, uint(1), records[0].ProductID)
}

func TestFindAll_WrappedSnapshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"inventory": []map[string]interface{}{
					{"product_id": 1, "product_name": "Keyboard", "stock": 10, "min_stock": 5},
					{"product_id": 2, "product_name": "Mouse", "stock": 4, "min_stock": 5},
				},
				"count": 2,
			},
		})
	}))
	defer server.Close()

	c := client.NewStockSourceClient(server.URL)

	records, err := c.FindAll(context.Background(), domain.SnapshotFilter{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Mouse", records[1].ProductName)
}
