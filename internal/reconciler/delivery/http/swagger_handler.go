package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterSwaggerDocs registers Swagger documentation routes
// @Summary Swagger documentation
// @Description Swagger API documentation
// @Tags Swagger
// @Success 200 {string} string "Swagger UI"
// @Router /swagger/ [get]
func RegisterSwaggerDocs(router *mux.Router, swaggerHandler http.Handler) {
	// Swagger UI
	router.PathPrefix("/swagger/").Handler(swaggerHandler)
}

// ReconcileOrder godoc
// @Summary Reconcile an order status transition
// @Description Apply the stock effect of an order status change (Admin only)
// @Tags Reconciler
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{order_id=string,order_number=string,previous_status=string,new_status=string,items=array} true "Order transition"
// @Success 200 {object} object{success=bool,message=string,data=object}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 403 {object} object{success=bool,error=string}
// @Router /api/reconciler/orders/reconcile [post]
func (h *ReconcilerHandler) ReconcileOrderDoc() {}

// DeductStock godoc
// @Summary Deduct stock from a product
// @Description Deduct a quantity from a product's stock (Admin only)
// @Tags Stock
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{product_id=int,quantity=int,reason=string,reference=string} true "Deduction"
// @Success 200 {object} object{success=bool,message=string,data=object}
// @Failure 400 {object} object{success=bool,error=string}
// @Router /api/reconciler/stock/deduct [post]
func (h *ReconcilerHandler) DeductStockDoc() {}

// AddStock godoc
// @Summary Add stock to a product
// @Description Add a quantity to a product's stock (Admin only)
// @Tags Stock
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{product_id=int,quantity=int,reason=string,reference=string} true "Addition"
// @Success 200 {object} object{success=bool,message=string,data=object}
// @Failure 400 {object} object{success=bool,error=string}
// @Router /api/reconciler/stock/add [post]
func (h *ReconcilerHandler) AddStockDoc() {}

// BulkAdjust godoc
// @Summary Adjust stock for many products
// @Description Apply additions and deductions across products, continuing past failures (Admin only)
// @Tags Stock
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{items=array,reason=string,reference=string} true "Bulk adjustment"
// @Success 200 {object} object{success=bool,data=object{success=bool,results=array}}
// @Failure 400 {object} object{success=bool,data=object{success=bool,results=array}}
// @Router /api/reconciler/stock/bulk [post]
func (h *ReconcilerHandler) BulkAdjustDoc() {}

// ValidateStock godoc
// @Summary Validate stock availability
// @Description Check whether a quantity can be served from current stock
// @Tags Stock
// @Produce json
// @Param product_id query int true "Product ID"
// @Param quantity query int true "Requested quantity"
// @Success 200 {object} object{success=bool,data=object{is_valid=bool,available_stock=int,requested_quantity=int,shortfall=int,message=string}}
// @Failure 400 {object} object{success=bool,error=string}
// @Router /api/reconciler/stock/validate [get]
func (h *ReconcilerHandler) ValidateStockDoc() {}

// CheckAlerts godoc
// @Summary Compute stock alerts
// @Description Recompute low stock and out of stock alerts from the current inventory snapshot
// @Tags Alerts
// @Produce json
// @Param product_id query int false "Limit the check to one product"
// @Param cached query bool false "Return the last computed set without recomputing"
// @Success 200 {object} object{success=bool,data=object{alerts=array,count=int}}
// @Failure 500 {object} object{success=bool,error=string}
// @Router /api/reconciler/alerts [get]
func (h *ReconcilerHandler) CheckAlertsDoc() {}

// InventoryValue godoc
// @Summary Compute inventory valuation
// @Description Sum stock times unit cost across the whole inventory
// @Tags Inventory
// @Produce json
// @Success 200 {object} object{success=bool,data=object{total_value=string,product_count=int,items=array}}
// @Failure 500 {object} object{success=bool,error=string}
// @Router /api/reconciler/inventory/value [get]
func (h *ReconcilerHandler) InventoryValueDoc() {}

// ListMovements godoc
// @Summary List stock movements
// @Description Page through the movement ledger in append order
// @Tags Movements
// @Produce json
// @Param product_id query int false "Product ID filter"
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {object} object{success=bool,data=object{movements=array,count=int,offset=int}}
// @Failure 500 {object} object{success=bool,error=string}
// @Router /api/reconciler/movements [get]
func (h *ReconcilerHandler) ListMovementsDoc() {}
