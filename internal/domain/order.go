package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ShippingStatus string

const (
	ShippingPending   ShippingStatus = "pending"
	ShippingShipped   ShippingStatus = "shipped"
	ShippingDelivered ShippingStatus = "delivered"
	ShippingCancelled ShippingStatus = "cancelled"
)

func (s ShippingStatus) Valid() bool {
	switch s {
	case ShippingPending, ShippingShipped, ShippingDelivered, ShippingCancelled:
		return true
	}
	return false
}

// MaxOrderTotal is the largest whole amount orders.total_amount NUMERIC(10,2)
// can store.
const MaxOrderTotal = 99_999_999

// OrderItem is the quantity captured at placement time.
type OrderItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

type Order struct {
	ID             int64           `json:"id"`
	CustomerID     int64           `json:"user"`
	Items          []OrderItem     `json:"items"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	CreatedAt      time.Time       `json:"created_at"`
	ShippingStatus ShippingStatus  `json:"shipping_status"`
}

// NewOrderFromLines builds the pending order snapshot for lines.
func NewOrderFromLines(customerID int64, lines []CartLine, now time.Time) *Order {
	items := make([]OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, OrderItem{Product: l.Product, Quantity: l.Quantity})
	}
	return &Order{
		CustomerID:     customerID,
		Items:          items,
		TotalAmount:    decimal.NewFromInt(LinesTotal(lines)),
		CreatedAt:      now,
		ShippingStatus: ShippingPending,
	}
}

type NotificationStatus string

const (
	NotificationQueued NotificationStatus = "queued"
	NotificationSent   NotificationStatus = "sent"
	NotificationFailed NotificationStatus = "failed"
)

// Placement is the result of a committed order placement. Notification is
// reported separately and never turns a committed order into a failure.
type Placement struct {
	OrderID      int64              `json:"order_id"`
	TotalAmount  decimal.Decimal    `json:"total_amount"`
	Notification NotificationStatus `json:"notification"`
	Detail       string             `json:"detail"`
}
