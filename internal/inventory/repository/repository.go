package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tair/stock-reconciler/internal/inventory/domain"
)

// GormStockSource implements domain.StockSource on PostgreSQL
type GormStockSource struct {
	db *gorm.DB
}

func NewGormStockSource(db *gorm.DB) *GormStockSource {
	return &GormStockSource{db: db}
}

func (r *GormStockSource) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.InventoryRecord{})
}

func (r *GormStockSource) FindByProductID(ctx context.Context, productID uint) (*domain.InventoryRecord, error) {
	var record domain.InventoryRecord
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// AdjustStock applies a signed delta in a single conditional UPDATE so the
// balance can never go negative, even under concurrent writers.
func (r *GormStockSource) AdjustStock(ctx context.Context, productID uint, delta domain.StockDelta) error {
	res := r.db.WithContext(ctx).Model(&domain.InventoryRecord{}).
		Where("product_id = ? AND stock + ? >= 0", productID, delta.Quantity).
		Update("stock", gorm.Expr("stock + ?", delta.Quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Either the record is missing or the deduction would overdraw it
		var count int64
		if err := r.db.WithContext(ctx).Model(&domain.InventoryRecord{}).
			Where("product_id = ?", productID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domain.ErrNotFound
		}
		return domain.ErrInsufficientStock
	}
	return nil
}

func (r *GormStockSource) FindAll(ctx context.Context, filter domain.SnapshotFilter) ([]domain.InventoryRecord, error) {
	query := r.db.WithContext(ctx).Model(&domain.InventoryRecord{})

	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.LowStock {
		query = query.Where("stock <= min_stock")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var records []domain.InventoryRecord
	err := query.Order("product_id").Find(&records).Error
	return records, err
}

// Upsert creates or replaces the record for its product
func (r *GormStockSource) Upsert(ctx context.Context, record *domain.InventoryRecord) error {
	var existing domain.InventoryRecord
	err := r.db.WithContext(ctx).Where("product_id = ?", record.ProductID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.WithContext(ctx).Create(record).Error
	}
	if err != nil {
		return err
	}
	record.ID = existing.ID
	return r.db.WithContext(ctx).Save(record).Error
}
