package handlers

import (
	"errors"

	"pasar/internal/repositories"
	"pasar/internal/services"

	"github.com/gofiber/fiber/v2"
)

// respondError maps a service error kind to an HTTP response. Insufficient
// stock carries the product and available quantity so the UI can suggest
// reducing the order; other kinds surface a safe generic message.
func respondError(c *fiber.Ctx, err error) error {
	var stockErr *repositories.InsufficientStockError
	if errors.As(err, &stockErr) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message":   "Insufficient stock",
			"product":   stockErr.ProductID,
			"requested": stockErr.Requested,
			"available": stockErr.Available,
		})
	}

	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Not found",
			"error":   err.Error(),
		})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request",
			"error":   err.Error(),
		})
	case errors.Is(err, services.ErrInvalidState):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "Conflicting state",
			"error":   err.Error(),
		})
	case errors.Is(err, services.ErrUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"message": "Service temporarily unavailable, please retry",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Internal server error",
		})
	}
}

// principalID returns the authenticated principal id stored by the JWT
// middleware, or "" on an unauthenticated route.
func principalID(c *fiber.Ctx) string {
	id, _ := c.Locals("principal_id").(string)
	return id
}

// respondForbidden is the answer when an authenticated principal addresses
// another principal's resources.
func respondForbidden(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"message": "You do not have access to this resource",
	})
}

// respondValidationErrors renders field-level validation failures.
func respondValidationErrors(c *fiber.Ctx, errs map[string]string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"errors":  errs,
	})
}
