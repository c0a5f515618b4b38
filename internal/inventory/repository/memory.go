package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/tair/stock-reconciler/internal/inventory/domain"
)

// MemoryStockSource is an in-memory domain.StockSource. It backs tests and
// deployments that run without a database.
type MemoryStockSource struct {
	mu      sync.RWMutex
	records map[uint]*domain.InventoryRecord
	nextID  uint

	// AdjustCalls counts successful stock mutations, for test assertions
	AdjustCalls int

	// FailAdjustFor simulates an upstream rejection for the given product IDs
	FailAdjustFor map[uint]bool
}

func NewMemoryStockSource() *MemoryStockSource {
	return &MemoryStockSource{
		records:       make(map[uint]*domain.InventoryRecord),
		nextID:        1,
		FailAdjustFor: make(map[uint]bool),
	}
}

func (r *MemoryStockSource) FindByProductID(_ context.Context, productID uint) (*domain.InventoryRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[productID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *record
	return &copied, nil
}

func (r *MemoryStockSource) AdjustStock(_ context.Context, productID uint, delta domain.StockDelta) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[productID]
	if !ok {
		return domain.ErrNotFound
	}
	if r.FailAdjustFor[productID] {
		return domain.ErrInsufficientStock
	}
	if record.Stock+delta.Quantity < 0 {
		return domain.ErrInsufficientStock
	}
	record.Stock += delta.Quantity
	r.AdjustCalls++
	return nil
}

func (r *MemoryStockSource) FindAll(_ context.Context, filter domain.SnapshotFilter) ([]domain.InventoryRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]uint, 0, len(r.records))
	for id := range r.records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	matched := make([]domain.InventoryRecord, 0, len(ids))
	for _, id := range ids {
		record := r.records[id]
		if filter.ProductID != nil && record.ProductID != *filter.ProductID {
			continue
		}
		if filter.LowStock && record.Stock > record.MinStock {
			continue
		}
		matched = append(matched, *record)
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []domain.InventoryRecord{}, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (r *MemoryStockSource) Upsert(_ context.Context, record *domain.InventoryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if record.ID == 0 {
		record.ID = r.nextID
		r.nextID++
	}
	copied := *record
	r.records[record.ProductID] = &copied
	return nil
}
