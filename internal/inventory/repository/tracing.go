package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/stock-reconciler/internal/inventory/domain"
)

var tracer = otel.Tracer("inventory-repository")

// TracingStockSource wraps a domain.StockSource with tracing
type TracingStockSource struct {
	inner domain.StockSource
}

func NewTracingStockSource(inner domain.StockSource) *TracingStockSource {
	return &TracingStockSource{inner: inner}
}

func (r *TracingStockSource) FindByProductID(ctx context.Context, productID uint) (*domain.InventoryRecord, error) {
	ctx, span := tracer.Start(ctx, "stocksource.FindByProductID",
		trace.WithAttributes(
			attribute.Int("inventory.product_id", int(productID)),
		),
	)
	defer span.End()

	record, err := r.inner.FindByProductID(ctx, productID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("inventory.stock", record.Stock),
		attribute.Int("inventory.min_stock", record.MinStock),
	)
	return record, nil
}

func (r *TracingStockSource) AdjustStock(ctx context.Context, productID uint, delta domain.StockDelta) error {
	ctx, span := tracer.Start(ctx, "stocksource.AdjustStock",
		trace.WithAttributes(
			attribute.Int("inventory.product_id", int(productID)),
			attribute.Int("adjustment.quantity", delta.Quantity),
			attribute.String("adjustment.type", delta.Type),
		),
	)
	defer span.End()

	if err := r.inner.AdjustStock(ctx, productID, delta); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (r *TracingStockSource) FindAll(ctx context.Context, filter domain.SnapshotFilter) ([]domain.InventoryRecord, error) {
	ctx, span := tracer.Start(ctx, "stocksource.FindAll",
		trace.WithAttributes(
			attribute.Bool("query.low_stock", filter.LowStock),
			attribute.Int("query.limit", filter.Limit),
			attribute.Int("query.offset", filter.Offset),
		),
	)
	defer span.End()

	records, err := r.inner.FindAll(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("result.count", len(records)))
	return records, nil
}
