package repositories

import (
	"fmt"
	"sync"

	"pasar/internal/models"

	"github.com/google/uuid"
)

// MockCustomerRepository is an in-memory implementation of CustomerRepository.
type MockCustomerRepository struct {
	customers map[string]models.Customer
	mu        sync.RWMutex
}

// NewMockCustomerRepository creates a new instance of MockCustomerRepository.
func NewMockCustomerRepository() *MockCustomerRepository {
	return &MockCustomerRepository{
		customers: make(map[string]models.Customer),
	}
}

// Create adds a new customer.
func (r *MockCustomerRepository) Create(customer *models.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if customer.ID == "" {
		customer.ID = uuid.New().String()
	}
	r.customers[customer.ID] = *customer
	return nil
}

// GetByID returns a customer by their ID.
func (r *MockCustomerRepository) GetByID(id string) (*models.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	customer, ok := r.customers[id]
	if !ok {
		return nil, fmt.Errorf("customer with ID %s: %w", id, ErrNotFound)
	}
	return &customer, nil
}

// GetByEmail returns a customer by their email.
func (r *MockCustomerRepository) GetByEmail(email string) (*models.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, customer := range r.customers {
		if customer.Email == email {
			return &customer, nil
		}
	}
	return nil, fmt.Errorf("customer with email %s: %w", email, ErrNotFound)
}

// Exists reports whether a customer with the given ID exists.
func (r *MockCustomerRepository) Exists(id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.customers[id]
	return ok, nil
}

// MockSellerRepository is an in-memory implementation of SellerRepository.
type MockSellerRepository struct {
	sellers map[string]models.Seller
	mu      sync.RWMutex
}

// NewMockSellerRepository creates a new instance of MockSellerRepository.
func NewMockSellerRepository() *MockSellerRepository {
	return &MockSellerRepository{
		sellers: make(map[string]models.Seller),
	}
}

// Create adds a new seller.
func (r *MockSellerRepository) Create(seller *models.Seller) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if seller.ID == "" {
		seller.ID = uuid.New().String()
	}
	r.sellers[seller.ID] = *seller
	return nil
}

// GetByID returns a seller by their ID.
func (r *MockSellerRepository) GetByID(id string) (*models.Seller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seller, ok := r.sellers[id]
	if !ok {
		return nil, fmt.Errorf("seller with ID %s: %w", id, ErrNotFound)
	}
	return &seller, nil
}

// GetByEmail returns a seller by their email.
func (r *MockSellerRepository) GetByEmail(email string) (*models.Seller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, seller := range r.sellers {
		if seller.Email == email {
			return &seller, nil
		}
	}
	return nil, fmt.Errorf("seller with email %s: %w", email, ErrNotFound)
}

// Exists reports whether a seller with the given ID exists.
func (r *MockSellerRepository) Exists(id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.sellers[id]
	return ok, nil
}
