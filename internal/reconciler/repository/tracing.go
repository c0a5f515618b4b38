package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/stock-reconciler/internal/reconciler/domain"
)

var tracer = otel.Tracer("reconciler-repository")

// TracingMovementRepository wraps a movement ledger with tracing
type TracingMovementRepository struct {
	inner domain.MovementRepository
}

func NewTracingMovementRepository(inner domain.MovementRepository) *TracingMovementRepository {
	return &TracingMovementRepository{inner: inner}
}

func (r *TracingMovementRepository) Append(ctx context.Context, movement *domain.StockMovement) error {
	ctx, span := tracer.Start(ctx, "ledger.Append",
		trace.WithAttributes(
			attribute.Int("movement.product_id", int(movement.ProductID)),
			attribute.String("movement.type", movement.Type),
			attribute.Int("movement.quantity", movement.Quantity),
			attribute.Int("movement.balance_before", movement.BalanceBefore),
			attribute.Int("movement.balance_after", movement.BalanceAfter),
		),
	)
	defer span.End()

	if err := r.inner.Append(ctx, movement); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetAttributes(attribute.Int("movement.id", int(movement.ID)))
	return nil
}

func (r *TracingMovementRepository) FindByProductID(ctx context.Context, productID uint, limit, offset int) ([]domain.StockMovement, error) {
	ctx, span := tracer.Start(ctx, "ledger.FindByProductID",
		trace.WithAttributes(
			attribute.Int("movement.product_id", int(productID)),
			attribute.Int("query.limit", limit),
			attribute.Int("query.offset", offset),
		),
	)
	defer span.End()

	movements, err := r.inner.FindByProductID(ctx, productID, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("result.count", len(movements)))
	return movements, nil
}

func (r *TracingMovementRepository) FindAll(ctx context.Context, limit, offset int) ([]domain.StockMovement, error) {
	ctx, span := tracer.Start(ctx, "ledger.FindAll",
		trace.WithAttributes(
			attribute.Int("query.limit", limit),
			attribute.Int("query.offset", offset),
		),
	)
	defer span.End()

	movements, err := r.inner.FindAll(ctx, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("result.count", len(movements)))
	return movements, nil
}
