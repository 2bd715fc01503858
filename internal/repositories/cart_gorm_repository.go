package repositories

import (
	"errors"
	"fmt"
	"pasar/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{
		db: db,
	}
}

// GetByID retrieves a single cart line by its ID.
func (r *GORMCartRepository) GetByID(id string) (*models.CartLine, error) {
	var line models.CartLine
	if err := r.db.First(&line, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cart line with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get cart line by ID %s: %w", id, err)
	}
	return &line, nil
}

// FindByCustomer retrieves all cart lines for a customer.
func (r *GORMCartRepository) FindByCustomer(customerID string) ([]models.CartLine, error) {
	var lines []models.CartLine
	if err := r.db.Where("customer_id = ?", customerID).Order("created_at").Find(&lines).Error; err != nil {
		return nil, fmt.Errorf("failed to get cart lines for customer %s: %w", customerID, err)
	}
	return lines, nil
}

// AddOrIncrement inserts the line or, on conflict with the
// (customer_id, product_id) unique index, adds the quantity to the existing
// row. One statement, so two concurrent adds both land.
func (r *GORMCartRepository) AddOrIncrement(line *models.CartLine) error {
	if line.ID == "" {
		line.ID = uuid.New().String()
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "customer_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("quantity + ?", line.Quantity),
			"updated_at": line.UpdatedAt,
		}),
	}).Create(line).Error
	if err != nil {
		return fmt.Errorf("failed to add cart line: %w", err)
	}
	// On conflict the insert was turned into an update of the existing row;
	// re-read so the caller sees the merged line, not the attempted insert.
	if err := r.db.First(line, "customer_id = ? AND product_id = ?", line.CustomerID, line.ProductID).Error; err != nil {
		return fmt.Errorf("failed to reload cart line: %w", err)
	}
	return nil
}

// UpdateQuantity overwrites the quantity of an existing cart line.
func (r *GORMCartRepository) UpdateQuantity(id string, quantity int) error {
	res := r.db.Model(&models.CartLine{}).Where("id = ?", id).Update("quantity", quantity)
	if res.Error != nil {
		return fmt.Errorf("failed to update cart line %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("cart line with ID %s: %w", id, ErrNotFound)
	}
	return nil
}

// Delete removes a cart line by its ID.
func (r *GORMCartRepository) Delete(id string) error {
	res := r.db.Delete(&models.CartLine{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete cart line %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("cart line with ID %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteByCustomer removes all cart lines for a customer. No-op if the cart
// is already empty.
func (r *GORMCartRepository) DeleteByCustomer(customerID string) error {
	if err := r.db.Delete(&models.CartLine{}, "customer_id = ?", customerID).Error; err != nil {
		return fmt.Errorf("failed to clear cart for customer %s: %w", customerID, err)
	}
	return nil
}
