package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Sentinel errors returned by StockSource implementations. A missing record
// must stay distinguishable from a found record with zero stock.
var (
	ErrNotFound          = errors.New("inventory record not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// InventoryRecord is the authoritative stock snapshot for one product
type InventoryRecord struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	ProductID   uint            `json:"product_id" gorm:"not null;uniqueIndex"`
	ProductName string          `json:"product_name" gorm:"not null"`
	Stock       int             `json:"stock" gorm:"not null;default:0"`
	MinStock    int             `json:"min_stock" gorm:"not null;default:0"`
	UnitCost    decimal.Decimal `json:"unit_cost" gorm:"type:decimal(18,4);default:0"`
	Location    string          `json:"location" gorm:"default:'warehouse'"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `json:"-" gorm:"index"`
}

// TableName specifies the table name
func (InventoryRecord) TableName() string {
	return "inventory_records"
}

// StockDelta is a signed stock mutation request. Negative quantity deducts,
// positive adds.
type StockDelta struct {
	Type      string `json:"type"`
	Quantity  int    `json:"quantity"`
	Reason    string `json:"reason"`
	Reference string `json:"reference,omitempty"`
	OrderID   string `json:"order_id,omitempty"`
}

// SnapshotFilter bounds inventory snapshot queries
type SnapshotFilter struct {
	ProductID *uint
	LowStock  bool
	Limit     int
	Offset    int
}

// StockSource is the contract for the authoritative stock store
type StockSource interface {
	FindByProductID(ctx context.Context, productID uint) (*InventoryRecord, error)
	AdjustStock(ctx context.Context, productID uint, delta StockDelta) error
	FindAll(ctx context.Context, filter SnapshotFilter) ([]InventoryRecord, error)
}
