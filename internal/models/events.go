package models

import "time"

// Event types published to the order topic.
const (
	EventTypeOrderPlaced     = "ORDER_PLACED"
	EventTypeOrderPaid       = "ORDER_PAID"
	EventTypeOrderCancelled  = "ORDER_CANCELLED"
	EventTypeShipmentCreated = "SHIPMENT_CREATED"
)

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderLineData is the per-unit payload carried in order events.
type OrderLineData struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	UnitPrice   float64 `json:"unit_price"`
	Digital     bool    `json:"digital"`
}

// OrderPlacedEvent is published after an allocation transaction commits.
type OrderPlacedEvent struct {
	BaseEvent
	OrderNumber   string          `json:"order_number"`
	CustomerName  string          `json:"customer_name"`
	CustomerEmail string          `json:"customer_email"`
	Status        string          `json:"status"`
	TotalAmount   float64         `json:"total_amount"`
	Lines         []OrderLineData `json:"lines"`
}

// OrderPaidEvent is published when payment verification succeeds.
type OrderPaidEvent struct {
	BaseEvent
	OrderNumber   string `json:"order_number"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	TranRef       string `json:"tran_ref"`
}

// OrderCancelledEvent is published when an admin cancels an order.
type OrderCancelledEvent struct {
	BaseEvent
	OrderNumber string `json:"order_number"`
	Reason      string `json:"reason"`
}

// ShipmentCreatedEvent is published by the shipment worker after booking a
// carrier shipment for a paid order.
type ShipmentCreatedEvent struct {
	BaseEvent
	OrderNumber string `json:"order_number"`
	ShipmentID  string `json:"shipment_id"`
	AWB         string `json:"awb"`
}
