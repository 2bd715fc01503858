package handlers

import (
	"fmt"
	"log"

	"pasar/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Post("/", h.HandlePlaceOrder)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Patch("/:id/status", h.HandleUpdatePaymentStatus)
	orderRoutes.Post("/:id/cancel", h.HandleCancelOrder)
	orderRoutes.Get("/customer/:customerId", h.HandleFindByCustomer)
	orderRoutes.Get("/seller/:sellerId", h.HandleFindBySeller)
}

// HandlePlaceOrder converts a checkout request into a persisted order.
func (h *OrderHandler) HandlePlaceOrder(c *fiber.Ctx) error {
	var req services.PlaceOrderRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing checkout request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationErrors(c, validationMessages(err))
	}

	order, err := h.service.PlaceOrder(req)
	if err != nil {
		log.Printf("Error placing order for customer %s: %v", req.CustomerID, err)
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	orderID := c.Params("id")
	order, err := h.service.GetOrderByID(orderID)
	if err != nil {
		log.Printf("Error getting order by ID %s: %v", orderID, err)
		return respondError(c, err)
	}
	return c.JSON(order)
}

// UpdatePaymentStatusRequest is the typed body for a status transition.
type UpdatePaymentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending paid cancelled refunded"`
}

// HandleUpdatePaymentStatus moves an order's payment status.
func (h *OrderHandler) HandleUpdatePaymentStatus(c *fiber.Ctx) error {
	orderID := c.Params("id")
	var req UpdatePaymentStatusRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing status update body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationErrors(c, validationMessages(err))
	}

	if err := h.service.UpdatePaymentStatus(orderID, req.Status); err != nil {
		log.Printf("Error updating payment status for order %s: %v", orderID, err)
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Order %s status updated to %s", orderID, req.Status),
	})
}

// HandleCancelOrder cancels an order and restores the reserved stock.
func (h *OrderHandler) HandleCancelOrder(c *fiber.Ctx) error {
	orderID := c.Params("id")
	order, err := h.service.CancelOrder(orderID)
	if err != nil {
		log.Printf("Error cancelling order %s: %v", orderID, err)
		return respondError(c, err)
	}
	return c.JSON(order)
}

// HandleFindByCustomer lists the orders placed by one customer.
func (h *OrderHandler) HandleFindByCustomer(c *fiber.Ctx) error {
	customerID := c.Params("customerId")
	if principalID(c) != customerID {
		return respondForbidden(c)
	}
	orders, err := h.service.FindByCustomer(customerID)
	if err != nil {
		log.Printf("Error getting orders for customer %s: %v", customerID, err)
		return respondError(c, err)
	}
	return c.JSON(orders)
}

// HandleFindBySeller lists the orders received by one seller.
func (h *OrderHandler) HandleFindBySeller(c *fiber.Ctx) error {
	sellerID := c.Params("sellerId")
	if principalID(c) != sellerID {
		return respondForbidden(c)
	}
	orders, err := h.service.FindBySeller(sellerID)
	if err != nil {
		log.Printf("Error getting orders for seller %s: %v", sellerID, err)
		return respondError(c, err)
	}
	return c.JSON(orders)
}
