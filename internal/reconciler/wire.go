//go:build wireinject
// +build wireinject

package reconciler

import (
	"database/sql"

	"github.com/google/wire"
	"gorm.io/gorm"

	invdomain "github.com/tair/stock-reconciler/internal/inventory/domain"
	"github.com/tair/stock-reconciler/internal/reconciler/delivery/http"
	"github.com/tair/stock-reconciler/internal/reconciler/domain"
	"github.com/tair/stock-reconciler/internal/reconciler/repository"
	"github.com/tair/stock-reconciler/internal/reconciler/usecase/command"
	"github.com/tair/stock-reconciler/internal/reconciler/usecase/query"
	"github.com/tair/stock-reconciler/pkg/lock"
)

// ProvideMovementRepository provides the movement ledger with tracing
func ProvideMovementRepository(sqlDB *sql.DB) domain.MovementRepository {
	return repository.NewTracingMovementRepository(repository.NewPostgresMovementRepository(sqlDB))
}

// ProvideAdjustmentRepository provides the adjustment tracker
func ProvideAdjustmentRepository(db *gorm.DB) domain.AdjustmentRepository {
	return repository.NewGormAdjustmentRepository(db)
}

// ProvideKeyedLocks provides the per-product lock set shared by all handlers
func ProvideKeyedLocks() *lock.Keyed {
	return lock.NewKeyed()
}

// ProvideAlertCache provides the injectable alert cache
func ProvideAlertCache() *domain.AlertCache {
	return domain.NewAlertCache()
}

// Command Handlers Providers
func ProvideReconcileOrderHandler(
	source invdomain.StockSource,
	ledger domain.MovementRepository,
	tracker domain.AdjustmentRepository,
	locks *lock.Keyed,
	notifier domain.StockLevelNotifier,
) *command.ReconcileOrderHandler {
	return command.NewReconcileOrderHandler(source, ledger, tracker, locks, notifier)
}

func ProvideDeductStockHandler(
	source invdomain.StockSource,
	ledger domain.MovementRepository,
	locks *lock.Keyed,
	notifier domain.StockLevelNotifier,
) *command.DeductStockHandler {
	return command.NewDeductStockHandler(source, ledger, locks, notifier)
}

func ProvideAddStockHandler(
	source invdomain.StockSource,
	ledger domain.MovementRepository,
	locks *lock.Keyed,
	notifier domain.StockLevelNotifier,
) *command.AddStockHandler {
	return command.NewAddStockHandler(source, ledger, locks, notifier)
}

func ProvideBulkAdjustHandler(deduct *command.DeductStockHandler, add *command.AddStockHandler) *command.BulkAdjustHandler {
	return command.NewBulkAdjustHandler(deduct, add)
}

// Query Handlers Providers
func ProvideValidateStockHandler(source invdomain.StockSource) *query.ValidateStockHandler {
	return query.NewValidateStockHandler(source)
}

func ProvideCheckAlertsHandler(source invdomain.StockSource, cache *domain.AlertCache) *query.CheckAlertsHandler {
	return query.NewCheckAlertsHandler(source, cache)
}

func ProvideInventoryValueHandler(source invdomain.StockSource) *query.InventoryValueHandler {
	return query.NewInventoryValueHandler(source)
}

func ProvideListMovementsHandler(ledger domain.MovementRepository) *query.ListMovementsHandler {
	return query.NewListMovementsHandler(ledger)
}

// Wire sets
var RepositorySet = wire.NewSet(
	ProvideMovementRepository,
	ProvideAdjustmentRepository,
	ProvideKeyedLocks,
	ProvideAlertCache,
)

var CommandHandlerSet = wire.NewSet(
	ProvideReconcileOrderHandler,
	ProvideDeductStockHandler,
	ProvideAddStockHandler,
	ProvideBulkAdjustHandler,
)

var QueryHandlerSet = wire.NewSet(
	ProvideValidateStockHandler,
	ProvideCheckAlertsHandler,
	ProvideInventoryValueHandler,
	ProvideListMovementsHandler,
)

var AllHandlersSet = wire.NewSet(
	RepositorySet,
	CommandHandlerSet,
	QueryHandlerSet,
)

// InitializeHTTPHandler initializes the HTTP handler with all dependencies
func InitializeHTTPHandler(
	db *gorm.DB,
	sqlDB *sql.DB,
	source invdomain.StockSource,
	notifier domain.StockLevelNotifier,
	writer http.InventoryWriter,
) (*http.ReconcilerHandler, error) {
	wire.Build(
		AllHandlersSet,
		http.NewReconcilerHandler,
	)
	return nil, nil
}
