package repositories

import (
	"errors"
	"fmt"
	"time"

	"pasar/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// GetByID retrieves a single order with its items.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// FindByCustomer retrieves all orders placed by a customer, newest first.
func (r *GORMOrderRepository) FindByCustomer(customerID string) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Items").Where("customer_id = ?", customerID).
		Order("order_date DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get orders for customer %s: %w", customerID, err)
	}
	return orders, nil
}

// FindBySeller retrieves all orders received by a seller, newest first.
func (r *GORMOrderRepository) FindBySeller(sellerID string) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Items").Where("seller_id = ?", sellerID).
		Order("order_date DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get orders for seller %s: %w", sellerID, err)
	}
	return orders, nil
}

// Create persists the order header and its items. GORM wraps the insert and
// the cascaded item inserts in a single transaction, so the write is
// all-or-nothing.
func (r *GORMOrderRepository) Create(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.New().String()
		}
		order.Items[i].OrderID = order.ID
	}
	if err := r.db.Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// CancelIfNotCancelled flips the order to cancelled in a single conditional
// UPDATE. The status guard in the WHERE clause is what keeps two concurrent
// cancels from both succeeding; zero rows means the order is missing or was
// cancelled already, and a re-read tells the two apart.
func (r *GORMOrderRepository) CancelIfNotCancelled(id string) error {
	res := r.db.Model(&models.Order{}).
		Where("id = ? AND payment_status <> ?", id, models.PaymentCancelled).
		Updates(map[string]interface{}{"payment_status": models.PaymentCancelled, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("failed to cancel order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.Model(&models.Order{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check order %s: %w", id, err)
		}
		if count == 0 {
			return fmt.Errorf("order with ID %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("order with ID %s: %w", id, ErrAlreadyCancelled)
	}
	return nil
}

// UpdatePaymentStatus updates the payment status of an order.
func (r *GORMOrderRepository) UpdatePaymentStatus(id string, status string) error {
	res := r.db.Model(&models.Order{}).Where("id = ?", id).
		Updates(map[string]interface{}{"payment_status": status, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("failed to update payment status for order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order with ID %s: %w", id, ErrNotFound)
	}
	return nil
}
