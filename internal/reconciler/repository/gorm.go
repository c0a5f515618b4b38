package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/tair/stock-reconciler/internal/reconciler/domain"
)

// GormAdjustmentRepository implements the adjustment tracker on PostgreSQL
type GormAdjustmentRepository struct {
	db *gorm.DB
}

func NewGormAdjustmentRepository(db *gorm.DB) *GormAdjustmentRepository {
	return &GormAdjustmentRepository{db: db}
}

func (r *GormAdjustmentRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.OrderStockAdjustment{})
}

// FindByOrderID returns the tracker entry for an order, or (nil, nil) when
// the order has never been reconciled.
func (r *GormAdjustmentRepository) FindByOrderID(orderID string) (*domain.OrderStockAdjustment, error) {
	var adjustment domain.OrderStockAdjustment
	err := r.db.Where("order_id = ?", orderID).First(&adjustment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &adjustment, nil
}

// Upsert creates the tracker entry on first reconciliation and overwrites it
// on every subsequent one.
func (r *GormAdjustmentRepository) Upsert(adjustment *domain.OrderStockAdjustment) error {
	existing, err := r.FindByOrderID(adjustment.OrderID)
	if err != nil {
		return err
	}
	if existing == nil {
		return r.db.Create(adjustment).Error
	}
	adjustment.ID = existing.ID
	adjustment.CreatedAt = existing.CreatedAt
	return r.db.Save(adjustment).Error
}
