package repositories

import (
	"errors"
	"fmt"
	"pasar/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SellerRepository defines the interface for seller data access.
type SellerRepository interface {
	Create(seller *models.Seller) error
	GetByID(id string) (*models.Seller, error)
	GetByEmail(email string) (*models.Seller, error)
	Exists(id string) (bool, error)
}

// GORMSellerRepository is a GORM implementation of SellerRepository.
type GORMSellerRepository struct {
	db *gorm.DB
}

// NewGORMSellerRepository creates a new instance of GORMSellerRepository.
func NewGORMSellerRepository(db *gorm.DB) *GORMSellerRepository {
	return &GORMSellerRepository{
		db: db,
	}
}

// Create creates a new seller in the database.
func (r *GORMSellerRepository) Create(seller *models.Seller) error {
	if seller.ID == "" {
		seller.ID = uuid.New().String()
	}
	if err := r.db.Create(seller).Error; err != nil {
		return fmt.Errorf("failed to create seller: %w", err)
	}
	return nil
}

// GetByID retrieves a seller by their ID from the database.
func (r *GORMSellerRepository) GetByID(id string) (*models.Seller, error) {
	var seller models.Seller
	if err := r.db.First(&seller, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("seller with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get seller by ID %s: %w", id, err)
	}
	return &seller, nil
}

// GetByEmail retrieves a seller by their email from the database.
func (r *GORMSellerRepository) GetByEmail(email string) (*models.Seller, error) {
	var seller models.Seller
	if err := r.db.First(&seller, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("seller with email %s: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get seller by email %s: %w", email, err)
	}
	return &seller, nil
}

// Exists reports whether a seller with the given ID exists.
func (r *GORMSellerRepository) Exists(id string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Seller{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check seller %s: %w", id, err)
	}
	return count > 0, nil
}
