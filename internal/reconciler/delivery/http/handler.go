package http

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	inventory "github.com/tair/stock-reconciler/internal/inventory/domain"
	"github.com/tair/stock-reconciler/internal/reconciler/domain"
	"github.com/tair/stock-reconciler/internal/reconciler/usecase/command"
	"github.com/tair/stock-reconciler/internal/reconciler/usecase/query"
	"github.com/tair/stock-reconciler/pkg/logger"
)

// InventoryWriter is the write side of a stock source. Only local stock
// sources implement it; the remote API client does not.
type InventoryWriter interface {
	Upsert(ctx context.Context, record *inventory.InventoryRecord) error
}

// ReconcilerHandler handles HTTP requests for stock reconciliation using CQRS pattern
type ReconcilerHandler struct {
	// Command handlers
	reconcileHandler *command.ReconcileOrderHandler
	deductHandler    *command.DeductStockHandler
	addHandler       *command.AddStockHandler
	bulkHandler      *command.BulkAdjustHandler

	// Query handlers
	validateHandler  *query.ValidateStockHandler
	alertsHandler    *query.CheckAlertsHandler
	valueHandler     *query.InventoryValueHandler
	movementsHandler *query.ListMovementsHandler

	source         inventory.StockSource
	writer         InventoryWriter
	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	requestSummary *prometheus.SummaryVec
	activeAlerts   prometheus.Gauge
}

// NewReconcilerHandler creates a new reconciler handler. writer may be nil
// when the stock source is remote and read-only from this service.
func NewReconcilerHandler(
	reconcileHandler *command.ReconcileOrderHandler,
	deductHandler *command.DeductStockHandler,
	addHandler *command.AddStockHandler,
	bulkHandler *command.BulkAdjustHandler,
	validateHandler *query.ValidateStockHandler,
	alertsHandler *query.CheckAlertsHandler,
	valueHandler *query.InventoryValueHandler,
	movementsHandler *query.ListMovementsHandler,
	source inventory.StockSource,
	writer InventoryWriter,
) *ReconcilerHandler {
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciler_service_requests_total",
			Help: "Total number of requests to reconciler service",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reconciler_service_request_duration_seconds",
			Help:    "Duration of reconciler service requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Summary metric for percentile calculation (p50, p90, p95, p99)
	requestSummary := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name: "reconciler_service_request_duration_summary",
			Help: "Summary of request durations with percentiles (client-side quantiles)",
			Objectives: map[float64]float64{
				0.5:  0.05,
				0.9:  0.01,
				0.95: 0.01,
				0.99: 0.001,
			},
			MaxAge: 10 * time.Minute,
		},
		[]string{"method", "endpoint"},
	)

	activeAlerts := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "reconciler_service_active_alerts",
			Help: "Number of stock alerts in the last computed alert set",
		},
	)

	prometheus.MustRegister(requestCounter)
	prometheus.MustRegister(requestLatency)
	prometheus.MustRegister(requestSummary)
	prometheus.MustRegister(activeAlerts)

	return &ReconcilerHandler{
		reconcileHandler: reconcileHandler,
		deductHandler:    deductHandler,
		addHandler:       addHandler,
		bulkHandler:      bulkHandler,
		validateHandler:  validateHandler,
		alertsHandler:    alertsHandler,
		valueHandler:     valueHandler,
		movementsHandler: movementsHandler,
		source:           source,
		writer:           writer,
		requestCounter:   requestCounter,
		requestLatency:   requestLatency,
		requestSummary:   requestSummary,
		activeAlerts:     activeAlerts,
	}
}

// Reconciler exposes the reconcile command handler so event consumers can
// share the same locks, ledger and tracker as the HTTP endpoints.
func (h *ReconcilerHandler) Reconciler() *command.ReconcileOrderHandler {
	return h.reconcileHandler
}

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware wraps handlers with Prometheus metrics
func (h *ReconcilerHandler) metricsMiddleware(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()

		h.requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rw.statusCode)).Inc()
		h.requestLatency.WithLabelValues(r.Method, endpoint).Observe(duration)
		h.requestSummary.WithLabelValues(r.Method, endpoint).Observe(duration)
	}
}

func (h *ReconcilerHandler) RegisterRoutes(router *mux.Router) {
	// Public routes (no auth required)
	router.HandleFunc("/api/reconciler/stock/validate", h.metricsMiddleware("/api/reconciler/stock/validate", h.ValidateStock)).Methods("GET")
	router.HandleFunc("/api/reconciler/alerts", h.metricsMiddleware("/api/reconciler/alerts", h.CheckAlerts)).Methods("GET")
	router.HandleFunc("/api/reconciler/inventory/value", h.metricsMiddleware("/api/reconciler/inventory/value", h.InventoryValue)).Methods("GET")
	router.HandleFunc("/api/reconciler/movements", h.metricsMiddleware("/api/reconciler/movements", h.ListMovements)).Methods("GET")
	router.HandleFunc("/api/inventory", h.metricsMiddleware("/api/inventory", h.ListInventory)).Methods("GET")
	router.HandleFunc("/api/inventory/product/{product_id}", h.metricsMiddleware("/api/inventory/product/{product_id}", h.GetInventoryRecord)).Methods("GET")

	// Admin routes (admin role required)
	router.HandleFunc("/api/reconciler/orders/reconcile", h.metricsMiddleware("/api/reconciler/orders/reconcile", AdminMiddleware(h.ReconcileOrder))).Methods("POST")
	router.HandleFunc("/api/reconciler/stock/deduct", h.metricsMiddleware("/api/reconciler/stock/deduct", AdminMiddleware(h.DeductStock))).Methods("POST")
	router.HandleFunc("/api/reconciler/stock/add", h.metricsMiddleware("/api/reconciler/stock/add", AdminMiddleware(h.AddStock))).Methods("POST")
	router.HandleFunc("/api/reconciler/stock/bulk", h.metricsMiddleware("/api/reconciler/stock/bulk", AdminMiddleware(h.BulkAdjust))).Methods("POST")
	router.HandleFunc("/api/inventory/{product_id}/adjust", h.metricsMiddleware("/api/inventory/{product_id}/adjust", AdminMiddleware(h.AdjustInventory))).Methods("POST")
	router.HandleFunc("/api/inventory", h.metricsMiddleware("/api/inventory", AdminMiddleware(h.UpsertInventory))).Methods("PUT")
}

// ReconcileOrder handles POST /api/reconciler/orders/reconcile
func (h *ReconcilerHandler) ReconcileOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID        string                 `json:"order_id"`
		OrderNumber    string                 `json:"order_number"`
		PreviousStatus string                 `json:"previous_status"`
		NewStatus      string                 `json:"new_status"`
		Items          []domain.OrderLineItem `json:"items"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	cmd := command.ReconcileOrderCommand{
		OrderID:        req.OrderID,
		OrderNumber:    req.OrderNumber,
		PreviousStatus: req.PreviousStatus,
		NewStatus:      req.NewStatus,
		Items:          req.Items,
	}

	result := h.reconcileHandler.Handle(r.Context(), cmd)
	if !result.Success {
		logger.Logger.Warn().
			Str("order_id", req.OrderID).
			Str("new_status", req.NewStatus).
			Str("reason", result.Message).
			Msg("Order reconciliation failed")
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   result.Message,
			Data:    result,
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: result.Message,
		Data:    result,
	})
}

// DeductStock handles POST /api/reconciler/stock/deduct
func (h *ReconcilerHandler) DeductStock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID uint   `json:"product_id"`
		Quantity  int    `json:"quantity"`
		Reason    string `json:"reason"`
		Reference string `json:"reference"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	result := h.deductHandler.Handle(r.Context(), command.DeductStockCommand{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Reason:    req.Reason,
		Reference: req.Reference,
	})

	respondOperation(w, result)
}

// AddStock handles POST /api/reconciler/stock/add
func (h *ReconcilerHandler) AddStock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID uint   `json:"product_id"`
		Quantity  int    `json:"quantity"`
		Reason    string `json:"reason"`
		Reference string `json:"reference"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	result := h.addHandler.Handle(r.Context(), command.AddStockCommand{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Reason:    req.Reason,
		Reference: req.Reference,
	})

	respondOperation(w, result)
}

// BulkAdjust handles POST /api/reconciler/stock/bulk
func (h *ReconcilerHandler) BulkAdjust(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Items     []command.BulkAdjustItem `json:"items"`
		Reason    string                   `json:"reason"`
		Reference string                   `json:"reference"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	if len(req.Items) == 0 {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "At least one item is required",
		})
		return
	}

	result := h.bulkHandler.Handle(r.Context(), command.BulkAdjustCommand{
		Items:     req.Items,
		Reason:    req.Reason,
		Reference: req.Reference,
	})

	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadRequest
	}
	respondJSON(w, status, Response{
		Success: result.Success,
		Data:    result,
	})
}

// ValidateStock handles GET /api/reconciler/stock/validate
func (h *ReconcilerHandler) ValidateStock(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseUint(r.URL.Query().Get("product_id"), 10, 32)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid product ID",
		})
		return
	}
	quantity, err := strconv.Atoi(r.URL.Query().Get("quantity"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid quantity",
		})
		return
	}

	result := h.validateHandler.Handle(r.Context(), query.ValidateStockQuery{
		ProductID: uint(productID),
		Quantity:  quantity,
	})

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    result,
	})
}

// CheckAlerts handles GET /api/reconciler/alerts
func (h *ReconcilerHandler) CheckAlerts(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("cached") == "true" {
		alerts := h.alertsHandler.Cached()
		respondJSON(w, http.StatusOK, Response{
			Success: true,
			Data: map[string]interface{}{
				"alerts": alerts,
				"count":  len(alerts),
			},
		})
		return
	}

	var q query.CheckAlertsQuery
	if raw := r.URL.Query().Get("product_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, Response{
				Success: false,
				Error:   "Invalid product ID",
			})
			return
		}
		productID := uint(id)
		q.ProductID = &productID
	}

	alerts, err := h.alertsHandler.Handle(r.Context(), q)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to compute stock alerts")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to compute stock alerts",
		})
		return
	}

	h.activeAlerts.Set(float64(len(alerts)))

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"alerts": alerts,
			"count":  len(alerts),
		},
	})
}

// InventoryValue handles GET /api/reconciler/inventory/value
func (h *ReconcilerHandler) InventoryValue(w http.ResponseWriter, r *http.Request) {
	value, err := h.valueHandler.Handle(r.Context())
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to compute inventory value")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to compute inventory value",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    value,
	})
}

// ListMovements handles GET /api/reconciler/movements
func (h *ReconcilerHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	q := query.ListMovementsQuery{Limit: limit, Offset: offset}
	if raw := r.URL.Query().Get("product_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, Response{
				Success: false,
				Error:   "Invalid product ID",
			})
			return
		}
		productID := uint(id)
		q.ProductID = &productID
	}

	movements, err := h.movementsHandler.Handle(r.Context(), q)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to list movements")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to list movements",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"movements": movements,
			"count":     len(movements),
			"offset":    offset,
		},
	})
}

// GetInventoryRecord handles GET /api/inventory/product/{product_id}
func (h *ReconcilerHandler) GetInventoryRecord(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseUint(vars["product_id"], 10, 32)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid product ID",
		})
		return
	}

	record, err := h.source.FindByProductID(r.Context(), uint(id))
	if err != nil {
		respondJSON(w, http.StatusNotFound, Response{
			Success: false,
			Error:   "Inventory record not found",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    record,
	})
}

// AdjustInventory handles POST /api/inventory/{product_id}/adjust
func (h *ReconcilerHandler) AdjustInventory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseUint(vars["product_id"], 10, 32)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid product ID",
		})
		return
	}

	var delta inventory.StockDelta
	if err := json.NewDecoder(r.Body).Decode(&delta); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	if err := h.source.AdjustStock(r.Context(), uint(id), delta); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, inventory.ErrNotFound) {
			status = http.StatusNotFound
		}
		respondJSON(w, status, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Stock adjusted successfully",
	})
}

// ListInventory handles GET /api/inventory
func (h *ReconcilerHandler) ListInventory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	filter := inventory.SnapshotFilter{
		LowStock: r.URL.Query().Get("low_stock") == "true",
		Limit:    limit,
		Offset:   offset,
	}
	if raw := r.URL.Query().Get("product_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, Response{
				Success: false,
				Error:   "Invalid product ID",
			})
			return
		}
		productID := uint(id)
		filter.ProductID = &productID
	}

	records, err := h.source.FindAll(r.Context(), filter)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to list inventory")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to list inventory",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"inventory": records,
			"count":     len(records),
			"offset":    offset,
		},
	})
}

// UpsertInventory handles PUT /api/inventory
func (h *ReconcilerHandler) UpsertInventory(w http.ResponseWriter, r *http.Request) {
	if h.writer == nil {
		respondJSON(w, http.StatusNotImplemented, Response{
			Success: false,
			Error:   "Stock source is read-only",
		})
		return
	}

	var record inventory.InventoryRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}
	if record.ProductID == 0 {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Product ID is required",
		})
		return
	}

	if err := h.writer.Upsert(r.Context(), &record); err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to upsert inventory record")
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Inventory record saved",
		Data:    record,
	})
}

func (h *ReconcilerHandler) RegisterHealthCheck(router *mux.Router, db *sql.DB) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, Response{
				Success: false,
				Error:   "Database unavailable",
			})
			return
		}

		respondJSON(w, http.StatusOK, Response{
			Success: true,
			Message: "Reconciler service is healthy",
		})
	}).Methods("GET")
}

// respondOperation maps a stock operation result onto an HTTP response
func respondOperation(w http.ResponseWriter, result *domain.StockOperationResult) {
	if !result.Success {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   result.Message,
			Data:    result,
		})
		return
	}
	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: result.Message,
		Data:    result,
	})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
