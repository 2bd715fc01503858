package repositories

import (
	"pasar/internal/models"
)

// ProductRepository defines the interface for product data access, including
// the stock counter that concurrent checkouts contend over.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
	// DecrementStock atomically performs `stock -= qty` if stock >= qty.
	// Returns *InsufficientStockError when stock is too low and ErrNotFound
	// when the product does not exist.
	DecrementStock(id string, qty int) error
	// IncrementStock performs `stock += qty`, the inverse of DecrementStock,
	// used for reservation rollback and order cancellation.
	IncrementStock(id string, qty int) error
}
