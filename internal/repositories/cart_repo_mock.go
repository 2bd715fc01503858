package repositories

import (
	"fmt"
	"sort"
	"sync"

	"pasar/internal/models"

	"github.com/google/uuid"
)

// MockCartRepository is an in-memory implementation of CartRepository.
type MockCartRepository struct {
	lines map[string]models.CartLine
	mu    sync.RWMutex
}

// NewMockCartRepository creates a new instance of MockCartRepository.
func NewMockCartRepository() *MockCartRepository {
	return &MockCartRepository{
		lines: make(map[string]models.CartLine),
	}
}

// GetByID returns a cart line by its ID.
func (r *MockCartRepository) GetByID(id string) (*models.CartLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	line, ok := r.lines[id]
	if !ok {
		return nil, fmt.Errorf("cart line with ID %s: %w", id, ErrNotFound)
	}
	return &line, nil
}

// FindByCustomer returns all cart lines for a customer, oldest first.
func (r *MockCartRepository) FindByCustomer(customerID string) ([]models.CartLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lineList := make([]models.CartLine, 0)
	for _, line := range r.lines {
		if line.CustomerID == customerID {
			lineList = append(lineList, line)
		}
	}
	sort.Slice(lineList, func(i, j int) bool {
		return lineList[i].CreatedAt.Before(lineList[j].CreatedAt)
	})
	return lineList, nil
}

// AddOrIncrement merges into an existing (customer, product) line under the
// write lock, mirroring the SQL upsert.
func (r *MockCartRepository) AddOrIncrement(line *models.CartLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, existing := range r.lines {
		if existing.CustomerID == line.CustomerID && existing.ProductID == line.ProductID {
			existing.Quantity += line.Quantity
			existing.UpdatedAt = line.UpdatedAt
			r.lines[id] = existing
			*line = existing
			return nil
		}
	}

	if line.ID == "" {
		line.ID = uuid.New().String()
	}
	r.lines[line.ID] = *line
	return nil
}

// UpdateQuantity overwrites the quantity of an existing cart line.
func (r *MockCartRepository) UpdateQuantity(id string, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	line, ok := r.lines[id]
	if !ok {
		return fmt.Errorf("cart line with ID %s: %w", id, ErrNotFound)
	}
	line.Quantity = quantity
	r.lines[id] = line
	return nil
}

// Delete removes a cart line by its ID.
func (r *MockCartRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.lines[id]
	if !ok {
		return fmt.Errorf("cart line with ID %s: %w", id, ErrNotFound)
	}
	delete(r.lines, id)
	return nil
}

// DeleteByCustomer removes all cart lines for a customer.
func (r *MockCartRepository) DeleteByCustomer(customerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, line := range r.lines {
		if line.CustomerID == customerID {
			delete(r.lines, id)
		}
	}
	return nil
}
