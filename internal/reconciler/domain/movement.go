package domain

import (
	"context"
	"time"
)

// Movement types. Sale movements carry negative quantities, purchase
// movements positive ones.
const (
	MovementTypeSale       = "sale"
	MovementTypePurchase   = "purchase"
	MovementTypeAdjustment = "adjustment"
	MovementTypeReturn     = "return"
	MovementTypeDamage     = "damage"
)

// IsValidMovementType reports whether t is a known movement type
func IsValidMovementType(t string) bool {
	switch t {
	case MovementTypeSale, MovementTypePurchase, MovementTypeAdjustment,
		MovementTypeReturn, MovementTypeDamage:
		return true
	}
	return false
}

// StockMovement is one immutable entry in the movement ledger.
// Invariant: BalanceAfter = BalanceBefore + Quantity.
type StockMovement struct {
	ID            uint      `json:"id"`
	ProductID     uint      `json:"product_id"`
	Type          string    `json:"type"`
	Quantity      int       `json:"quantity"`
	BalanceBefore int       `json:"balance_before"`
	BalanceAfter  int       `json:"balance_after"`
	Reason        string    `json:"reason"`
	Reference     string    `json:"reference,omitempty"`
	OrderID       string    `json:"order_id,omitempty"`
	OrderNumber   string    `json:"order_number,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// MovementRepository is the append-only movement ledger contract. Entries are
// never updated or deleted; ordering is append order.
type MovementRepository interface {
	Append(ctx context.Context, movement *StockMovement) error
	FindByProductID(ctx context.Context, productID uint, limit, offset int) ([]StockMovement, error)
	FindAll(ctx context.Context, limit, offset int) ([]StockMovement, error)
}
