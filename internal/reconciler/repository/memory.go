package repository

import (
	"context"
	"sync"

	"github.com/tair/stock-reconciler/internal/reconciler/domain"
)

// MemoryMovementRepository is an in-memory append-only movement ledger
type MemoryMovementRepository struct {
	mu        sync.RWMutex
	movements []domain.StockMovement
	nextID    uint
}

func NewMemoryMovementRepository() *MemoryMovementRepository {
	return &MemoryMovementRepository{nextID: 1}
}

func (r *MemoryMovementRepository) Append(_ context.Context, movement *domain.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	movement.ID = r.nextID
	r.nextID++
	r.movements = append(r.movements, *movement)
	return nil
}

func (r *MemoryMovementRepository) FindByProductID(_ context.Context, productID uint, limit, offset int) ([]domain.StockMovement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := []domain.StockMovement{}
	for _, m := range r.movements {
		if m.ProductID == productID {
			matched = append(matched, m)
		}
	}
	return page(matched, limit, offset), nil
}

func (r *MemoryMovementRepository) FindAll(_ context.Context, limit, offset int) ([]domain.StockMovement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]domain.StockMovement, len(r.movements))
	copy(all, r.movements)
	return page(all, limit, offset), nil
}

// Len reports the number of ledger entries, for test assertions
func (r *MemoryMovementRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.movements)
}

func page(movements []domain.StockMovement, limit, offset int) []domain.StockMovement {
	if offset > 0 {
		if offset >= len(movements) {
			return []domain.StockMovement{}
		}
		movements = movements[offset:]
	}
	if limit > 0 && len(movements) > limit {
		movements = movements[:limit]
	}
	return movements
}

// MemoryAdjustmentRepository is an in-memory adjustment tracker
type MemoryAdjustmentRepository struct {
	mu          sync.RWMutex
	adjustments map[string]*domain.OrderStockAdjustment
	nextID      uint
}

func NewMemoryAdjustmentRepository() *MemoryAdjustmentRepository {
	return &MemoryAdjustmentRepository{
		adjustments: make(map[string]*domain.OrderStockAdjustment),
		nextID:      1,
	}
}

func (r *MemoryAdjustmentRepository) FindByOrderID(orderID string) (*domain.OrderStockAdjustment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	adjustment, ok := r.adjustments[orderID]
	if !ok {
		return nil, nil
	}
	copied := *adjustment
	return &copied, nil
}

func (r *MemoryAdjustmentRepository) Upsert(adjustment *domain.OrderStockAdjustment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.adjustments[adjustment.OrderID]; ok {
		adjustment.ID = existing.ID
	} else {
		adjustment.ID = r.nextID
		r.nextID++
	}
	copied := *adjustment
	r.adjustments[adjustment.OrderID] = &copied
	return nil
}
