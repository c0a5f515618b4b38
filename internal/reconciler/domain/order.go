package domain

import "time"

// Order statuses
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// IsValidOrderStatus reports whether s is a known order status
func IsValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// OrderLineItem is one product position on an order
type OrderLineItem struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// OrderStockAdjustment tracks the last order status the reconciler has
// successfully applied stock changes for. One row per order, overwritten on
// each successful reconciliation, never deleted.
type OrderStockAdjustment struct {
	ID                 uint      `json:"id" gorm:"primaryKey"`
	OrderID            string    `json:"order_id" gorm:"not null;uniqueIndex"`
	OrderNumber        string    `json:"order_number"`
	CurrentStatus      string    `json:"current_status" gorm:"not null"`
	LastAdjustedStatus string    `json:"last_adjusted_status" gorm:"not null"`
	StockAdjusted      bool      `json:"stock_adjusted" gorm:"not null;default:false"`
	AdjustedAt         time.Time `json:"adjusted_at"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// TableName specifies the table name
func (OrderStockAdjustment) TableName() string {
	return "order_stock_adjustments"
}

// AdjustmentRepository is the adjustment tracker contract. FindByOrderID
// returns (nil, nil) when no entry exists for the order.
type AdjustmentRepository interface {
	FindByOrderID(orderID string) (*OrderStockAdjustment, error)
	Upsert(adjustment *OrderStockAdjustment) error
}
