package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"pasar/internal/models"

	"github.com/google/uuid"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
type MockOrderRepository struct {
	orders map[string]models.Order
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]models.Order),
	}
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order with ID %s: %w", id, ErrNotFound)
	}
	return &order, nil
}

// FindByCustomer returns all orders placed by a customer, newest first.
func (r *MockOrderRepository) FindByCustomer(customerID string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.filter(func(o models.Order) bool { return o.CustomerID == customerID }), nil
}

// FindBySeller returns all orders received by a seller, newest first.
func (r *MockOrderRepository) FindBySeller(sellerID string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.filter(func(o models.Order) bool { return o.SellerID == sellerID }), nil
}

func (r *MockOrderRepository) filter(keep func(models.Order) bool) []models.Order {
	orderList := make([]models.Order, 0)
	for _, order := range r.orders {
		if keep(order) {
			orderList = append(orderList, order)
		}
	}
	sort.Slice(orderList, func(i, j int) bool {
		return orderList[i].OrderDate.After(orderList[j].OrderDate)
	})
	return orderList
}

// Create adds a new order with its items.
func (r *MockOrderRepository) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.New().String()
		}
		order.Items[i].OrderID = order.ID
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()
	r.orders[order.ID] = *order
	return nil
}

// CancelIfNotCancelled performs the conditional transition under the write
// lock, giving the same compare-and-set guarantee as the SQL form.
func (r *MockOrderRepository) CancelIfNotCancelled(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order with ID %s: %w", id, ErrNotFound)
	}
	if order.PaymentStatus == models.PaymentCancelled {
		return fmt.Errorf("order with ID %s: %w", id, ErrAlreadyCancelled)
	}
	order.PaymentStatus = models.PaymentCancelled
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}

// UpdatePaymentStatus updates the payment status of an order.
func (r *MockOrderRepository) UpdatePaymentStatus(id string, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order with ID %s: %w", id, ErrNotFound)
	}
	order.PaymentStatus = status
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}
