package models

import "time"

// Payment status values an order can move between. An order is otherwise
// immutable once created; cancellation is terminal.
const (
	PaymentPending   = "pending"
	PaymentPaid      = "paid"
	PaymentCancelled = "cancelled"
	PaymentRefunded  = "refunded"
)

// OrderItem represents a single line within an order. PricePerUnit is the
// price at the time of purchase, decoupled from later catalog price changes.
type OrderItem struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID      string    `json:"order_id" gorm:"index;type:varchar(36)"`
	ProductID    string    `json:"product_id" gorm:"type:varchar(36)"`
	Quantity     int       `json:"quantity"`
	PricePerUnit float64   `json:"price_per_unit"`
	CreatedAt    time.Time `json:"created_at"`
}

// Order represents a committed purchase from one customer to one seller.
type Order struct {
	ID             string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CustomerID     string      `json:"customer_id" gorm:"index;type:varchar(36)"`
	SellerID       string      `json:"seller_id" gorm:"index;type:varchar(36)"`
	TotalAmount    float64     `json:"total_amount"`
	DeliveryCharge float64     `json:"delivery_charge"`
	PaymentStatus  string      `json:"payment_status"` // one of the Payment* constants
	TransactionID  string      `json:"transaction_id"` // opaque token from the payment layer
	OrderDate      time.Time   `json:"order_date"`
	Items          []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`

	// Denormalized display fields, populated on reads and never persisted.
	CustomerName string `json:"customer_name,omitempty" gorm:"-"`
	SellerName   string `json:"seller_name,omitempty" gorm:"-"`
	ShopName     string `json:"shop_name,omitempty" gorm:"-"`
}

// ValidPaymentStatus reports whether s is one of the enumerated statuses.
func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentCancelled, PaymentRefunded:
		return true
	}
	return false
}
