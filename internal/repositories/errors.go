package repositories

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by all repository implementations. Services wrap
// these with context; handlers match on them with errors.Is.
var (
	ErrNotFound          = errors.New("record not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrAlreadyCancelled  = errors.New("order already cancelled")
)

// InsufficientStockError reports a failed stock reservation for one product.
// It carries enough detail for the caller to render an actionable message.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s (requested: %d, available: %d)",
		e.ProductID, e.Requested, e.Available)
}

// Is makes errors.Is(err, ErrInsufficientStock) match.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
