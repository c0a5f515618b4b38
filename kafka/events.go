package kafka

import "time"

// OrderStatusChangedEvent signals that an order moved to a new status
type OrderStatusChangedEvent struct {
	EventID        string          `json:"event_id"`
	EventType      string          `json:"event_type"`
	OrderID        string          `json:"order_id"`
	OrderNumber    string          `json:"order_number"`
	PreviousStatus string          `json:"previous_status"`
	NewStatus      string          `json:"new_status"`
	Items          []EventLineItem `json:"items"`
	Timestamp      time.Time       `json:"timestamp"`
}

// EventLineItem is one product position carried on an order event
type EventLineItem struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// StockAlertEvent signals that a product crossed a stock threshold
type StockAlertEvent struct {
	EventID      string    `json:"event_id"`
	EventType    string    `json:"event_type"`
	ProductID    uint      `json:"product_id"`
	ProductName  string    `json:"product_name"`
	CurrentStock int       `json:"current_stock"`
	MinStock     int       `json:"min_stock"`
	AlertType    string    `json:"alert_type"`
	Severity     string    `json:"severity"`
	Timestamp    time.Time `json:"timestamp"`
}

// Event types
const (
	EventTypeOrderStatusChanged = "order.status.changed"
	EventTypeStockAlert         = "stock.alert"
)

// Kafka topics
const (
	TopicOrderStatusChanged = "order-status-changed"
	TopicStockAlerts        = "stock-alerts"
)
