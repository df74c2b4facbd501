package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderPlaced            = "order.placed"
	EventPasswordResetRequested = "password.reset_requested"
)

type OrderPlacedLine struct {
	ProductName string  `json:"product_name"`
	Price       int64   `json:"price"`
	ImageURL    *string `json:"image_url"`
	Quantity    int     `json:"quantity"`
	TotalPrice  int64   `json:"total_price"`
}

type OrderPlacedEvent struct {
	OrderID     int64             `json:"order_id"`
	CustomerID  int64             `json:"customer_id"`
	Username    string            `json:"username"`
	Email       string            `json:"email"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	Items       []OrderPlacedLine `json:"items"`
	Timestamp   time.Time         `json:"timestamp"`
}

type PasswordResetEvent struct {
	CustomerID int64     `json:"customer_id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	ResetURL   string    `json:"reset_url"`
	Timestamp  time.Time `json:"timestamp"`
}
