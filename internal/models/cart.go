package models

import "time"

// CartLine is one product+quantity entry pending purchase for a customer.
// The composite unique index enforces the merge invariant: at most one line
// per (customer, product) pair.
type CartLine struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CustomerID string    `json:"customer_id" gorm:"uniqueIndex:idx_cart_customer_product;type:varchar(36)"`
	ProductID  string    `json:"product_id" gorm:"uniqueIndex:idx_cart_customer_product;type:varchar(36)"`
	Quantity   int       `json:"quantity"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CartLineView is a cart line enriched with live catalog data for display.
type CartLineView struct {
	CartLine
	ProductName string  `json:"product_name"`
	UnitPrice   float64 `json:"unit_price"`
	Subtotal    float64 `json:"subtotal"`
}

// CartView is the customer's full cart with a total computed from the live
// catalog price, so it can fluctuate while items sit in the cart (unlike an
// order's frozen total).
type CartView struct {
	CustomerID string         `json:"customer_id"`
	Lines      []CartLineView `json:"lines"`
	Total      float64        `json:"total"`
	ItemCount  int            `json:"item_count"`
}

// LowStockLine flags a cart line whose quantity exceeds the currently
// available stock. Advisory only; checkout enforces the real limit.
type LowStockLine struct {
	CartLineID  string `json:"cart_line_id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	Available   int    `json:"available"`
}
