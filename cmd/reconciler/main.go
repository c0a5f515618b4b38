package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	invclient "github.com/tair/stock-reconciler/internal/inventory/client"
	invdomain "github.com/tair/stock-reconciler/internal/inventory/domain"
	invrepository "github.com/tair/stock-reconciler/internal/inventory/repository"
	"github.com/tair/stock-reconciler/internal/reconciler"
	httpDelivery "github.com/tair/stock-reconciler/internal/reconciler/delivery/http"
	"github.com/tair/stock-reconciler/internal/reconciler/domain"
	"github.com/tair/stock-reconciler/internal/reconciler/repository"
	"github.com/tair/stock-reconciler/internal/reconciler/usecase/command"
	"github.com/tair/stock-reconciler/kafka"
	"github.com/tair/stock-reconciler/pkg/database"
	"github.com/tair/stock-reconciler/pkg/logger"
	"github.com/tair/stock-reconciler/pkg/tracing"
)

func main() {
	// Initialize logger
	serviceName := getEnv("OTEL_SERVICE_NAME", "reconciler-service")
	isDevelopment := getEnv("ENVIRONMENT", "development") == "development"
	logger.Init(serviceName, isDevelopment)

	logLevel := getEnv("LOG_LEVEL", "info")
	logger.SetLevel(logLevel)

	logger.Logger.Info().
		Str("service", serviceName).
		Str("environment", getEnv("ENVIRONMENT", "development")).
		Str("log_level", logLevel).
		Msg("Starting reconciler service")

	// Initialize tracer
	tp, err := tracing.InitTracer(serviceName)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to initialize tracer")
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracing.Shutdown(ctx, tp); err != nil {
				logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
			}
		}()
	}

	// Load database configuration
	dbConfig := database.Config{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "reconcilerdb"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Connect to database
	db, err := database.NewGormConnection(dbConfig)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to get database instance")
	}
	defer sqlDB.Close()

	// Run migrations
	if err := db.AutoMigrate(&domain.OrderStockAdjustment{}); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to run migrations")
	}
	if err := repository.NewPostgresMovementRepository(sqlDB).EnsureSchema(); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to ensure ledger schema")
	}

	logger.Logger.Info().Msg("Database initialized successfully")

	// Select stock source: local database by default, remote inventory API
	// when INVENTORY_API_URL is set
	var source invdomain.StockSource
	var writer httpDelivery.InventoryWriter

	if apiURL := os.Getenv("INVENTORY_API_URL"); apiURL != "" {
		source = invclient.NewStockSourceClient(apiURL)
	} else {
		if err := db.AutoMigrate(&invdomain.InventoryRecord{}); err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to run inventory migrations")
		}
		gormSource := invrepository.NewGormStockSource(db)
		source = invrepository.NewTracingStockSource(gormSource)
		writer = gormSource
	}

	// Initialize Kafka publisher for stock alerts
	brokers := strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")

	var notifier domain.StockLevelNotifier
	publisher, err := kafka.NewPublisher(brokers)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to initialize Kafka publisher, stock alerts disabled")
	} else {
		defer publisher.Close()
		notifier = kafka.NewAlertNotifier(publisher)
	}

	// Initialize handler with Wire DI
	handler, err := reconciler.InitializeHTTPHandler(db, sqlDB, source, notifier, writer)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize handler")
	}

	logger.Logger.Info().Msg("Reconciler handler initialized")

	// Consume order status events
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	startOrderConsumer(ctx, brokers, handler.Reconciler())

	// Start HTTP server
	httpPort := getEnv("HTTP_PORT", "8084")
	startHTTPServer(handler, sqlDB, httpPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("Shutting down server...")
}

// startOrderConsumer subscribes to order status events and feeds them into
// the reconciliation handler. Kafka being unavailable is not fatal: the HTTP
// reconcile endpoint still works.
func startOrderConsumer(ctx context.Context, brokers []string, reconcile *command.ReconcileOrderHandler) {
	groupID := getEnv("KAFKA_GROUP_ID", "reconciler-service")

	consumer, err := kafka.NewConsumer(brokers, groupID, []string{kafka.TopicOrderStatusChanged})
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to initialize Kafka consumer, order events disabled")
		return
	}

	consumer.RegisterHandler(kafka.EventTypeOrderStatusChanged, func(ctx context.Context, event kafka.OrderStatusChangedEvent) error {
		items := make([]domain.OrderLineItem, len(event.Items))
		for i, item := range event.Items {
			items[i] = domain.OrderLineItem{ProductID: item.ProductID, Quantity: item.Quantity}
		}

		result := reconcile.Handle(ctx, command.ReconcileOrderCommand{
			OrderID:        event.OrderID,
			OrderNumber:    event.OrderNumber,
			PreviousStatus: event.PreviousStatus,
			NewStatus:      event.NewStatus,
			Items:          items,
		})
		if !result.Success {
			logger.Warn(ctx).
				Str("order_id", event.OrderID).
				Str("new_status", event.NewStatus).
				Str("reason", result.Message).
				Msg("Order reconciliation failed")
		}
		return nil
	})

	if err := consumer.Start(ctx); err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to start Kafka consumer")
	}
}

func startHTTPServer(handler *httpDelivery.ReconcilerHandler, db *sql.DB, port string) {
	// Setup router
	router := mux.NewRouter()

	// Register routes
	handler.RegisterRoutes(router)

	// Health check endpoint
	handler.RegisterHealthCheck(router, db)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	// Swagger documentation
	httpDelivery.RegisterSwaggerDocs(router, httpSwagger.WrapHandler)

	// CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	logger.Logger.Info().
		Str("port", port).
		Str("metrics_endpoint", "/metrics").
		Msg("HTTP server started")

	go func() {
		if err := http.ListenAndServe(":"+port, c.Handler(router)); err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
