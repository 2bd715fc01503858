package repositories

import (
	"pasar/internal/models"
)

// OrderRepository defines the interface for order data access. Orders are
// append-only: Create writes the header and its items in one durable write,
// and only the payment status may change afterwards.
type OrderRepository interface {
	GetByID(id string) (*models.Order, error)
	FindByCustomer(customerID string) ([]models.Order, error)
	FindBySeller(sellerID string) ([]models.Order, error)
	Create(order *models.Order) error
	UpdatePaymentStatus(id string, status string) error
	// CancelIfNotCancelled transitions the order to cancelled only if it is
	// not cancelled already, as one atomic compare-and-set. Exactly one of
	// any number of concurrent cancels succeeds; the rest get
	// ErrAlreadyCancelled.
	CancelIfNotCancelled(id string) error
}
