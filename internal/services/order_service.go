package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"pasar/internal/models"
	"pasar/internal/repositories"
	"pasar/pkg/rabbitmq"
)

// OrderItemRequest is one requested line of a checkout. PricePerUnit mirrors
// the client's cart snapshot and becomes the price-at-purchase on the order
// line.
type OrderItemRequest struct {
	ProductID    string  `json:"product_id" validate:"required"`
	Quantity     int     `json:"quantity" validate:"required,gte=1"`
	PricePerUnit float64 `json:"price_per_unit" validate:"required,gt=0"`
}

// PlaceOrderRequest is a checkout request: one customer buying from one
// seller. A multi-seller cart must be split into one request per seller by
// the caller.
type PlaceOrderRequest struct {
	CustomerID     string             `json:"customer_id" validate:"required"`
	SellerID       string             `json:"seller_id" validate:"required"`
	Items          []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	DeliveryCharge float64            `json:"delivery_charge" validate:"gte=0"`
	PaymentStatus  string             `json:"payment_status" validate:"omitempty,oneof=pending paid cancelled refunded"`
	TransactionID  string             `json:"transaction_id"`
}

// OrderService converts checkout requests into durable orders with race-free
// stock accounting, and owns the later payment-status and cancellation
// transitions.
type OrderService struct {
	orderRepo    repositories.OrderRepository
	productRepo  repositories.ProductRepository
	customerRepo repositories.CustomerRepository
	sellerRepo   repositories.SellerRepository
	mqClient     *rabbitmq.Client

	// priceDriftTolerance is the relative deviation between the client's
	// price and the catalog price above which a warning is logged. The
	// client price is still recorded; see PlaceOrder.
	priceDriftTolerance float64
}

// NewOrderService creates a new OrderService.
func NewOrderService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository,
	customerRepo repositories.CustomerRepository, sellerRepo repositories.SellerRepository,
	mqClient *rabbitmq.Client, priceDriftTolerance float64) *OrderService {
	return &OrderService{
		orderRepo:           orderRepo,
		productRepo:         productRepo,
		customerRepo:        customerRepo,
		sellerRepo:          sellerRepo,
		mqClient:            mqClient,
		priceDriftTolerance: priceDriftTolerance,
	}
}

// PlaceOrder runs the checkout: validate, reserve stock across every line
// all-or-nothing, persist the order with its lines, publish order.created.
// From the caller's perspective the operation is atomic: either a persisted
// order comes back, or stock is untouched.
func (s *OrderService) PlaceOrder(req PlaceOrderRequest) (*models.Order, error) {
	if err := s.validate(&req); err != nil {
		return nil, err
	}

	// Freeze the lines with the client-declared price, cross-checking it
	// against the live catalog price. Large drift is logged, not rejected,
	// to stay compatible with clients that submit their cart snapshot.
	items := make([]models.OrderItem, 0, len(req.Items))
	var total float64
	for _, item := range req.Items {
		product, err := s.productRepo.GetByID(item.ProductID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		if product.SellerID != "" && product.SellerID != req.SellerID {
			return nil, fmt.Errorf("%w: product %s does not belong to seller %s", ErrInvalidInput, product.ID, req.SellerID)
		}
		if drift := relativeDrift(item.PricePerUnit, product.Price); drift > s.priceDriftTolerance {
			log.Printf("Price drift on product %s: request %.2f vs catalog %.2f (drift %.0f%%)",
				product.ID, item.PricePerUnit, product.Price, drift*100)
		}
		items = append(items, models.OrderItem{
			ProductID:    item.ProductID,
			Quantity:     item.Quantity,
			PricePerUnit: item.PricePerUnit,
			CreatedAt:    time.Now(),
		})
		total += item.PricePerUnit * float64(item.Quantity)
	}

	// Reserve stock for every line. Each decrement is an atomic conditional
	// update; if any line fails, every line already reserved in this
	// checkout is credited back before returning.
	reserved := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		if err := s.productRepo.DecrementStock(item.ProductID, item.Quantity); err != nil {
			s.releaseStock(reserved)
			if errors.Is(err, repositories.ErrInsufficientStock) || errors.Is(err, repositories.ErrNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		reserved = append(reserved, item)
	}

	status := req.PaymentStatus
	if status == "" {
		status = models.PaymentPending
	}
	order := &models.Order{
		CustomerID:     req.CustomerID,
		SellerID:       req.SellerID,
		TotalAmount:    total + req.DeliveryCharge,
		DeliveryCharge: req.DeliveryCharge,
		PaymentStatus:  status,
		TransactionID:  req.TransactionID,
		OrderDate:      time.Now(),
		Items:          items,
	}

	if err := s.orderRepo.Create(order); err != nil {
		// Stock must never stay decremented without a persisted order.
		s.releaseStock(reserved)
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	s.populateNames(order)
	s.publishEvent("order.created", order)
	return order, nil
}

// validate checks the shape of the request before any mutation: existing
// customer and seller, a non-empty item list, positive quantities and prices.
func (s *OrderService) validate(req *PlaceOrderRequest) error {
	if req.CustomerID == "" || req.SellerID == "" {
		return fmt.Errorf("%w: customer and seller are required", ErrInvalidInput)
	}
	if len(req.Items) == 0 {
		return fmt.Errorf("%w: at least one item is required", ErrInvalidInput)
	}
	for _, item := range req.Items {
		if item.ProductID == "" {
			return fmt.Errorf("%w: item product id is required", ErrInvalidInput)
		}
		if item.Quantity < 1 {
			return fmt.Errorf("%w: quantity for product %s must be at least 1", ErrInvalidInput, item.ProductID)
		}
		if item.PricePerUnit <= 0 {
			return fmt.Errorf("%w: price for product %s must be greater than 0", ErrInvalidInput, item.ProductID)
		}
	}
	if req.PaymentStatus != "" && !models.ValidPaymentStatus(req.PaymentStatus) {
		return fmt.Errorf("%w: invalid payment status: %s", ErrInvalidInput, req.PaymentStatus)
	}

	exists, err := s.customerRepo.Exists(req.CustomerID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if !exists {
		return fmt.Errorf("customer with ID %s: %w", req.CustomerID, repositories.ErrNotFound)
	}
	exists, err = s.sellerRepo.Exists(req.SellerID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if !exists {
		return fmt.Errorf("seller with ID %s: %w", req.SellerID, repositories.ErrNotFound)
	}
	return nil
}

// releaseStock credits back already-reserved lines after a failed checkout.
func (s *OrderService) releaseStock(reserved []models.OrderItem) {
	for _, item := range reserved {
		if err := s.productRepo.IncrementStock(item.ProductID, item.Quantity); err != nil {
			log.Printf("Failed to release %d units of product %s during rollback: %v",
				item.Quantity, item.ProductID, err)
		}
	}
}

// UpdatePaymentStatus moves an order to another status in the enumerated
// set. No stock side effects.
func (s *OrderService) UpdatePaymentStatus(orderID, newStatus string) error {
	if !models.ValidPaymentStatus(newStatus) {
		return fmt.Errorf("%w: invalid payment status: %s", ErrInvalidInput, newStatus)
	}
	if err := s.orderRepo.UpdatePaymentStatus(orderID, newStatus); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// CancelOrder transitions an order to cancelled and restores stock for every
// line, the mirror of the reservation at placement. The transition is a
// conditional update in the store, so of any number of concurrent cancels
// exactly one restores stock; the rest fail with ErrInvalidState and have no
// stock effect.
func (s *OrderService) CancelOrder(orderID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	// The compare-and-set decides the winner; the read above only supplies
	// the lines to restore. Stock is credited back only on a won transition.
	if err := s.orderRepo.CancelIfNotCancelled(orderID); err != nil {
		switch {
		case errors.Is(err, repositories.ErrAlreadyCancelled):
			return nil, fmt.Errorf("%w: order %s is already cancelled", ErrInvalidState, orderID)
		case errors.Is(err, repositories.ErrNotFound):
			return nil, err
		default:
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
	}
	for _, item := range order.Items {
		if err := s.productRepo.IncrementStock(item.ProductID, item.Quantity); err != nil {
			log.Printf("Failed to restore %d units of product %s for cancelled order %s: %v",
				item.Quantity, item.ProductID, orderID, err)
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
	}

	order.PaymentStatus = models.PaymentCancelled
	order.UpdatedAt = time.Now()
	s.populateNames(order)
	s.publishEvent("order.cancelled", order)
	return order, nil
}

// GetOrderByID retrieves a single order with its lines.
func (s *OrderService) GetOrderByID(orderID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	s.populateNames(order)
	return order, nil
}

// FindByCustomer returns the orders placed by one customer, with lines and
// counterparty display names.
func (s *OrderService) FindByCustomer(customerID string) ([]models.Order, error) {
	orders, err := s.orderRepo.FindByCustomer(customerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	for i := range orders {
		s.populateNames(&orders[i])
	}
	return orders, nil
}

// FindBySeller returns the orders received by one seller, with lines and
// counterparty display names.
func (s *OrderService) FindBySeller(sellerID string) ([]models.Order, error) {
	orders, err := s.orderRepo.FindBySeller(sellerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	for i := range orders {
		s.populateNames(&orders[i])
	}
	return orders, nil
}

// populateNames fills the denormalized display fields from the customer and
// seller directories. Lookup failures leave the fields empty; display data
// never fails a read.
func (s *OrderService) populateNames(order *models.Order) {
	if customer, err := s.customerRepo.GetByID(order.CustomerID); err == nil {
		order.CustomerName = customer.Name
	}
	if seller, err := s.sellerRepo.GetByID(order.SellerID); err == nil {
		order.SellerName = seller.Name
		order.ShopName = seller.ShopName
	}
}

// publishEvent publishes an order event to RabbitMQ. Publishing is best
// effort: the order is already durable, so a broker failure only logs.
func (s *OrderService) publishEvent(eventType string, order *models.Order) {
	if s.mqClient == nil {
		return
	}
	body, err := json.Marshal(map[string]interface{}{
		"orderID":  order.ID,
		"customer": order.CustomerID,
		"seller":   order.SellerID,
		"status":   order.PaymentStatus,
		"total":    order.TotalAmount,
	})
	if err != nil {
		log.Printf("Failed to marshal order event for order %s: %v", order.ID, err)
		return
	}
	if err := s.mqClient.Publish(eventType, body); err != nil {
		log.Printf("Warning: Failed to publish %s event for order %s: %v", eventType, order.ID, err)
	}
}

// relativeDrift returns |requested-catalog| relative to the catalog price.
func relativeDrift(requested, catalog float64) float64 {
	if catalog <= 0 {
		return 0
	}
	return math.Abs(requested-catalog) / catalog
}
