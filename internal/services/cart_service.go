package services

import (
	"errors"
	"fmt"
	"time"

	"pasar/internal/models"
	"pasar/internal/repositories"
)

// CartService maintains the authoritative list of what a customer intends to
// buy, before commitment. Stock is neither checked nor reserved here; that
// happens at order placement.
type CartService struct {
	cartRepo     repositories.CartRepository
	productRepo  repositories.ProductRepository
	customerRepo repositories.CustomerRepository
}

// NewCartService creates a new CartService.
func NewCartService(cartRepo repositories.CartRepository, productRepo repositories.ProductRepository, customerRepo repositories.CustomerRepository) *CartService {
	return &CartService{
		cartRepo:     cartRepo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
	}
}

// AddToCart adds quantity units of a product to the customer's cart. If the
// product is already carted the existing line's quantity is increased
// instead of creating a duplicate line.
func (s *CartService) AddToCart(customerID, productID string, quantity int) (*models.CartLine, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1, got %d", ErrInvalidInput, quantity)
	}

	exists, err := s.customerRepo.Exists(customerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if !exists {
		return nil, fmt.Errorf("customer with ID %s: %w", customerID, repositories.ErrNotFound)
	}

	if _, err := s.productRepo.GetByID(productID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	now := time.Now()
	line := &models.CartLine{
		CustomerID: customerID,
		ProductID:  productID,
		Quantity:   quantity,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.cartRepo.AddOrIncrement(line); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return line, nil
}

// UpdateQuantity overwrites the quantity of a cart line. A new quantity of
// zero or less deletes the line instead of persisting a non-positive value;
// the returned removed flag signals that case and the line is nil.
func (s *CartService) UpdateQuantity(cartLineID string, newQuantity int) (line *models.CartLine, removed bool, err error) {
	existing, err := s.cartRepo.GetByID(cartLineID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, false, err
		}
		return nil, false, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if newQuantity <= 0 {
		if err := s.cartRepo.Delete(cartLineID); err != nil {
			return nil, false, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return nil, true, nil
	}

	if err := s.cartRepo.UpdateQuantity(cartLineID, newQuantity); err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	existing.Quantity = newQuantity
	existing.UpdatedAt = time.Now()
	return existing, false, nil
}

// RemoveFromCart deletes a cart line.
func (s *CartService) RemoveFromCart(cartLineID string) error {
	if err := s.cartRepo.Delete(cartLineID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// ClearCart deletes every cart line for the customer. No-op on an empty cart.
func (s *CartService) ClearCart(customerID string) error {
	if err := s.cartRepo.DeleteByCustomer(customerID); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// GetCart returns the customer's cart lines with a total computed from the
// live catalog price. The displayed total can therefore fluctuate while
// items sit in the cart, unlike an order's frozen total.
func (s *CartService) GetCart(customerID string) (*models.CartView, error) {
	lines, err := s.cartRepo.FindByCustomer(customerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	view := &models.CartView{
		CustomerID: customerID,
		Lines:      make([]models.CartLineView, 0, len(lines)),
	}
	for _, line := range lines {
		product, err := s.productRepo.GetByID(line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		subtotal := product.Price * float64(line.Quantity)
		view.Lines = append(view.Lines, models.CartLineView{
			CartLine:    line,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Subtotal:    subtotal,
		})
		view.Total += subtotal
		view.ItemCount += line.Quantity
	}
	return view, nil
}

// FindLowStockLines returns the customer's cart lines whose quantity exceeds
// the currently available stock, so the caller can warn before checkout.
// Advisory only; the reservation at order placement is the enforcement point.
func (s *CartService) FindLowStockLines(customerID string) ([]models.LowStockLine, error) {
	lines, err := s.cartRepo.FindByCustomer(customerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	low := make([]models.LowStockLine, 0)
	for _, line := range lines {
		product, err := s.productRepo.GetByID(line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		if line.Quantity > product.Stock {
			low = append(low, models.LowStockLine{
				CartLineID:  line.ID,
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    line.Quantity,
				Available:   product.Stock,
			})
		}
	}
	return low, nil
}
