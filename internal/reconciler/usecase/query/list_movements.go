package query

import (
	"context"

	"github.com/tair/stock-reconciler/internal/reconciler/domain"
)

const (
	defaultMovementLimit = 50
	maxMovementLimit     = 500
)

// ListMovementsQuery pages through the movement ledger, optionally scoped to
// one product
type ListMovementsQuery struct {
	ProductID *uint
	Limit     int
	Offset    int
}

// ListMovementsHandler handles movement ledger queries
type ListMovementsHandler struct {
	ledger domain.MovementRepository
}

// NewListMovementsHandler creates a new list movements handler
func NewListMovementsHandler(ledger domain.MovementRepository) *ListMovementsHandler {
	return &ListMovementsHandler{ledger: ledger}
}

// Handle returns ledger entries in append order
func (h *ListMovementsHandler) Handle(ctx context.Context, q ListMovementsQuery) ([]domain.StockMovement, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultMovementLimit
	}
	if limit > maxMovementLimit {
		limit = maxMovementLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	if q.ProductID != nil {
		return h.ledger.FindByProductID(ctx, *q.ProductID, limit, offset)
	}
	return h.ledger.FindAll(ctx, limit, offset)
}
