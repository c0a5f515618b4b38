package domain

// ReconcileResult is the outcome of one order status reconciliation. Failures
// are reported through the result, never as a panic or unhandled error.
type ReconcileResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// StockOperationResult is the outcome of a single deduct or add operation
type StockOperationResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	NewStock int    `json:"new_stock,omitempty"`
}

// StockValidationResult reports whether a requested quantity can be served
// from current stock. Shortfall is only set when the request is invalid.
type StockValidationResult struct {
	IsValid           bool   `json:"is_valid"`
	AvailableStock    int    `json:"available_stock"`
	RequestedQuantity int    `json:"requested_quantity"`
	Shortfall         int    `json:"shortfall,omitempty"`
	Message           string `json:"message"`
}

// BulkOperationOutcome is the per-operation result of a bulk run
type BulkOperationOutcome struct {
	ProductID uint   `json:"product_id"`
	Success   bool   `json:"success"`
	Message   string `json:"message"`
}

// BulkResult aggregates a bulk run. Success is the logical AND of all
// individual outcomes; execution never aborts on an individual failure.
type BulkResult struct {
	Success bool                   `json:"success"`
	Results []BulkOperationOutcome `json:"results"`
}
