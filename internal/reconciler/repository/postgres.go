package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tair/stock-reconciler/internal/reconciler/domain"
)

// PostgresMovementRepository implements the movement ledger on PostgreSQL.
// The ledger is append-only: no UPDATE or DELETE is ever issued.
type PostgresMovementRepository struct {
	db *sql.DB
}

// NewPostgresMovementRepository creates a new PostgreSQL movement repository
func NewPostgresMovementRepository(db *sql.DB) *PostgresMovementRepository {
	return &PostgresMovementRepository{db: db}
}

// EnsureSchema creates the ledger table if it does not exist
func (r *PostgresMovementRepository) EnsureSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS stock_movements (
			id BIGSERIAL PRIMARY KEY,
			product_id BIGINT NOT NULL,
			type TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			balance_before INTEGER NOT NULL,
			balance_after INTEGER NOT NULL,
			reason TEXT NOT NULL,
			reference TEXT NOT NULL DEFAULT '',
			order_id TEXT NOT NULL DEFAULT '',
			order_number TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_stock_movements_product_id ON stock_movements (product_id);
	`

	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to ensure ledger schema: %w", err)
	}
	return nil
}

// Append inserts a new movement
func (r *PostgresMovementRepository) Append(ctx context.Context, movement *domain.StockMovement) error {
	query := `
		INSERT INTO stock_movements
			(product_id, type, quantity, balance_before, balance_after, reason, reference, order_id, order_number, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		movement.ProductID,
		movement.Type,
		movement.Quantity,
		movement.BalanceBefore,
		movement.BalanceAfter,
		movement.Reason,
		movement.Reference,
		movement.OrderID,
		movement.OrderNumber,
		movement.CreatedAt,
	).Scan(&movement.ID)

	if err != nil {
		return fmt.Errorf("failed to append movement: %w", err)
	}

	return nil
}

// FindByProductID retrieves movements for one product in append order
func (r *PostgresMovementRepository) FindByProductID(ctx context.Context, productID uint, limit, offset int) ([]domain.StockMovement, error) {
	query := `
		SELECT id, product_id, type, quantity, balance_before, balance_after, reason, reference, order_id, order_number, created_at
		FROM stock_movements
		WHERE product_id = $1
		ORDER BY id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, productID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to find movements: %w", err)
	}
	defer rows.Close()

	return scanMovements(rows)
}

// FindAll retrieves movements across all products in append order
func (r *PostgresMovementRepository) FindAll(ctx context.Context, limit, offset int) ([]domain.StockMovement, error) {
	query := `
		SELECT id, product_id, type, quantity, balance_before, balance_after, reason, reference, order_id, order_number, created_at
		FROM stock_movements
		ORDER BY id
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to find movements: %w", err)
	}
	defer rows.Close()

	return scanMovements(rows)
}

func scanMovements(rows *sql.Rows) ([]domain.StockMovement, error) {
	movements := []domain.StockMovement{}
	for rows.Next() {
		m := domain.StockMovement{}
		err := rows.Scan(
			&m.ID,
			&m.ProductID,
			&m.Type,
			&m.Quantity,
			&m.BalanceBefore,
			&m.BalanceAfter,
			&m.Reason,
			&m.Reference,
			&m.OrderID,
			&m.OrderNumber,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan movement: %w", err)
		}
		movements = append(movements, m)
	}

	return movements, rows.Err()
}
