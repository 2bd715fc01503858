package repositories

import (
	"pasar/internal/models"
)

// CartRepository defines the interface for cart line data access.
type CartRepository interface {
	GetByID(id string) (*models.CartLine, error)
	FindByCustomer(customerID string) ([]models.CartLine, error)
	// AddOrIncrement upserts against the (customer_id, product_id) unique
	// constraint: a new line is inserted, an existing one has its quantity
	// increased by line.Quantity. The merge happens in one atomic statement
	// so concurrent adds never lose an increment.
	AddOrIncrement(line *models.CartLine) error
	UpdateQuantity(id string, quantity int) error
	Delete(id string) error
	DeleteByCustomer(customerID string) error
}
