package handlers

import (
	"fmt"
	"log"

	"pasar/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CartHandler handles HTTP requests for the customer cart.
type CartHandler struct {
	service  *services.CartService
	validate *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the cart routes with the Fiber app.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Post("/items", h.HandleAddToCart)
	cartRoutes.Patch("/items/:id", h.HandleUpdateQuantity)
	cartRoutes.Delete("/items/:id", h.HandleRemoveFromCart)
	cartRoutes.Get("/:customerId", h.HandleGetCart)
	cartRoutes.Get("/:customerId/low-stock", h.HandleLowStock)
	cartRoutes.Delete("/:customerId", h.HandleClearCart)
}

// AddToCartRequest is the typed body for adding a product to the cart.
type AddToCartRequest struct {
	CustomerID string `json:"customer_id" validate:"required"`
	ProductID  string `json:"product_id" validate:"required"`
	Quantity   int    `json:"quantity" validate:"required,gte=1"`
}

// HandleAddToCart adds a product to the cart, merging into an existing line.
func (h *CartHandler) HandleAddToCart(c *fiber.Ctx) error {
	var req AddToCartRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing add-to-cart request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationErrors(c, validationMessages(err))
	}

	line, err := h.service.AddToCart(req.CustomerID, req.ProductID, req.Quantity)
	if err != nil {
		log.Printf("Error adding product %s to cart: %v", req.ProductID, err)
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(line)
}

// UpdateQuantityRequest is the typed body for a quantity update.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// HandleUpdateQuantity overwrites a cart line's quantity. Zero or negative
// removes the line.
func (h *CartHandler) HandleUpdateQuantity(c *fiber.Ctx) error {
	lineID := c.Params("id")
	var req UpdateQuantityRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing quantity update body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	line, removed, err := h.service.UpdateQuantity(lineID, req.Quantity)
	if err != nil {
		log.Printf("Error updating cart line %s: %v", lineID, err)
		return respondError(c, err)
	}
	if removed {
		return c.JSON(fiber.Map{
			"message": fmt.Sprintf("Cart line %s removed", lineID),
			"removed": true,
		})
	}
	return c.JSON(line)
}

// HandleRemoveFromCart deletes a cart line.
func (h *CartHandler) HandleRemoveFromCart(c *fiber.Ctx) error {
	lineID := c.Params("id")
	if err := h.service.RemoveFromCart(lineID); err != nil {
		log.Printf("Error removing cart line %s: %v", lineID, err)
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Cart line %s removed", lineID),
	})
}

// HandleGetCart returns the customer's cart with a live-price total.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	customerID := c.Params("customerId")
	if principalID(c) != customerID {
		return respondForbidden(c)
	}
	view, err := h.service.GetCart(customerID)
	if err != nil {
		log.Printf("Error getting cart for customer %s: %v", customerID, err)
		return respondError(c, err)
	}
	return c.JSON(view)
}

// HandleLowStock returns cart lines whose quantity exceeds available stock.
func (h *CartHandler) HandleLowStock(c *fiber.Ctx) error {
	customerID := c.Params("customerId")
	if principalID(c) != customerID {
		return respondForbidden(c)
	}
	low, err := h.service.FindLowStockLines(customerID)
	if err != nil {
		log.Printf("Error checking low stock for customer %s: %v", customerID, err)
		return respondError(c, err)
	}
	return c.JSON(low)
}

// HandleClearCart deletes every line in the customer's cart.
func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	customerID := c.Params("customerId")
	if principalID(c) != customerID {
		return respondForbidden(c)
	}
	if err := h.service.ClearCart(customerID); err != nil {
		log.Printf("Error clearing cart for customer %s: %v", customerID, err)
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Cart cleared for customer %s", customerID),
	})
}

// validationMessages flattens validator errors into field -> message pairs.
func validationMessages(err error) map[string]string {
	errorMessages := make(map[string]string)
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
	}
	return errorMessages
}
