package domain

import "time"

type CatalogImportMessage struct {
	TaskID        string `json:"task_id"`
	SpreadsheetID string `json:"spreadsheet_id"`
}

type OrderStatusEvent struct {
	EventType string      `json:"event_type"`
	OrderID   string      `json:"order_id"`
	OldStatus OrderStatus `json:"old_status"`
	NewStatus OrderStatus `json:"new_status"`
	Reason    string      `json:"reason"`
	Timestamp time.Time   `json:"timestamp"`
	UserID    string      `json:"user_id"`
}

// OrderPlacedEvent is the outbound confirmation payload handed to messaging.
type OrderPlacedEvent struct {
	EventType     string            `json:"event_type"`
	OrderID       string            `json:"order_id"`
	CustomerName  string            `json:"customer_name"`
	CustomerPhone string            `json:"customer_phone,omitempty"`
	FinalTotal    int64             `json:"final_total"`
	Lines         []OrderPlacedLine `json:"lines,omitempty"`
	PlacedAt      time.Time         `json:"placed_at"`
}

type OrderPlacedLine struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	LineTotal int64  `json:"line_total"`
}

const (
	EventOrderPlaced        = "order.placed"
	EventOrderStatusChanged = "order.status_changed"
)
