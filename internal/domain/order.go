package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type FulfillmentType string

const (
	FulfillmentTakeaway FulfillmentType = "takeaway"
	FulfillmentDelivery FulfillmentType = "delivery"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderAssigned  OrderStatus = "assigned"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:  {OrderAssigned, OrderCompleted, OrderCancelled},
	OrderAssigned: {OrderCompleted, OrderCancelled},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderAssigned, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Customer struct {
	UserID string `json:"user_id,omitempty"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
}

type Fulfillment struct {
	Type     FulfillmentType `json:"type"`
	Address  string          `json:"address,omitempty"`
	MapsLink string          `json:"maps_link,omitempty"`
	Notes    string          `json:"notes,omitempty"`
}

type Order struct {
	ID                  string          `bson:"_id" json:"id"`
	UserID              string          `bson:"user_id,omitempty" json:"user_id,omitempty"`
	CustomerName        string          `bson:"customer_name" json:"customer_name"`
	CustomerPhone       string          `bson:"customer_phone" json:"customer_phone"`
	Type                FulfillmentType `bson:"type" json:"type"`
	Address             string          `bson:"address,omitempty" json:"address,omitempty"`
	MapsLink            string          `bson:"maps_link,omitempty" json:"maps_link,omitempty"`
	Notes               string          `bson:"notes,omitempty" json:"notes,omitempty"`
	Subtotal            int64           `bson:"subtotal" json:"subtotal"`
	PromoDiscount       int64           `bson:"promo_discount" json:"promo_discount"`
	PointsUsed          int64           `bson:"points_used" json:"points_used"`
	DiscountTotal       int64           `bson:"discount_total" json:"discount_total"`
	FinalTotal          int64           `bson:"total_price" json:"total_price"`
	PointsEarned        int64           `bson:"points_earned" json:"points_earned"`
	PromoCode           string          `bson:"promo_code_used,omitempty" json:"promo_code_used,omitempty"`
	Status              OrderStatus     `bson:"status" json:"status"`
	NeedsReconciliation bool            `bson:"needs_reconciliation" json:"needs_reconciliation"`
	ReconciliationNote  string          `bson:"reconciliation_note,omitempty" json:"reconciliation_note,omitempty"`
	CreatedAt           time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt           time.Time       `bson:"updated_at" json:"updated_at"`
}

// OrderLine captures the cart line as it was billed.
type OrderLine struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OrderID     string              `bson:"order_id" json:"order_id"`
	ProductID   int64               `bson:"product_id" json:"product_id"`
	ProductName string              `bson:"product_name" json:"product_name"`
	BasePrice   int64               `bson:"base_price" json:"base_price"`
	UnitPrice   int64               `bson:"price_at_time" json:"price_at_time"`
	Quantity    int                 `bson:"quantity" json:"quantity"`
	Modifiers   map[string][]string `bson:"modifiers,omitempty" json:"modifiers,omitempty"`
	Note        string              `bson:"notes,omitempty" json:"notes,omitempty"`
}

func (l OrderLine) Total() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

type OrderStatusAudit struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID   string             `bson:"order_id" json:"order_id"`
	EventType string             `bson:"event_type" json:"event_type"`
	OldStatus OrderStatus        `bson:"old_status" json:"old_status"`
	NewStatus OrderStatus        `bson:"new_status" json:"new_status"`
	Reason    string             `bson:"reason" json:"reason"`
	UserID    string             `bson:"user_id" json:"user_id"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}
