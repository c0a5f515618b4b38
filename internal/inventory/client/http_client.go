package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tair/stock-reconciler/internal/inventory/domain"
	"github.com/tair/stock-reconciler/pkg/logger"
)

// StockSourceClient implements domain.StockSource against a remote inventory
// API over HTTP.
type StockSourceClient struct {
	baseURL string
	client  *http.Client
}

// envelope is the remote API response wrapper
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// NewStockSourceClient creates a new inventory API client
func NewStockSourceClient(baseURL string) *StockSourceClient {
	logger.Logger.Info().
		Str("base_url", baseURL).
		Msg("Using remote inventory API as stock source")

	return &StockSourceClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *StockSourceClient) FindByProductID(ctx context.Context, productID uint) (*domain.InventoryRecord, error) {
	env, status, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/inventory/product/%d", productID), nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	if !env.Success {
		return nil, fmt.Errorf("inventory API error: %s", env.Error)
	}

	var record domain.InventoryRecord
	if err := json.Unmarshal(env.Data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode inventory record: %w", err)
	}
	return &record, nil
}

func (c *StockSourceClient) AdjustStock(ctx context.Context, productID uint, delta domain.StockDelta) error {
	body, err := json.Marshal(delta)
	if err != nil {
		return fmt.Errorf("failed to encode adjustment: %w", err)
	}

	env, status, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/inventory/%d/adjust", productID), body)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return domain.ErrNotFound
	}
	if !env.Success {
		return fmt.Errorf("inventory API rejected adjustment: %s", env.Error)
	}
	return nil
}

func (c *StockSourceClient) FindAll(ctx context.Context, filter domain.SnapshotFilter) ([]domain.InventoryRecord, error) {
	params := url.Values{}
	if filter.ProductID != nil {
		params.Set("product_id", strconv.FormatUint(uint64(*filter.ProductID), 10))
	}
	if filter.LowStock {
		params.Set("low_stock", "true")
	}
	if filter.Limit > 0 {
		params.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Offset > 0 {
		params.Set("offset", strconv.Itoa(filter.Offset))
	}

	path := "/api/inventory"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	env, _, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, fmt.Errorf("inventory API error: %s", env.Error)
	}

	return normalizeSnapshot(env.Data)
}

// normalizeSnapshot accepts both snapshot shapes the inventory API is known
// to return: a bare array, or an object wrapping the array under "inventory".
func normalizeSnapshot(data json.RawMessage) ([]domain.InventoryRecord, error) {
	var records []domain.InventoryRecord
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}

	var wrapped struct {
		Inventory []domain.InventoryRecord `json:"inventory"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to decode inventory snapshot: %w", err)
	}
	return wrapped.Inventory, nil
}

func (c *StockSourceClient) do(ctx context.Context, method, path string, body []byte) (*envelope, int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to reach inventory API: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to decode inventory API response: %w", err)
	}
	return &env, resp.StatusCode, nil
}
