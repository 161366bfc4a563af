package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockmaster/internal/application/dto"
	"github.com/jhoicas/stockmaster/internal/domain"
)

// writeError traduce un error de dominio a status HTTP y código estable.
func writeError(c *fiber.Ctx, err error) error {
	var ise *domain.InsufficientStockError
	if errors.As(err, &ise) {
		return c.Status(fiber.StatusConflict).JSON(dto.InsufficientStockResponse{
			Code:        "INSUFFICIENT_STOCK",
			Message:     ise.Error(),
			ProductID:   ise.ProductID,
			WarehouseID: ise.WarehouseID,
			Available:   ise.Available,
			Requested:   ise.Requested,
		})
	}
	status, code := statusFor(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		msg = "error interno"
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuantity):
		return fiber.StatusBadRequest, "INVALID_QUANTITY"
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrAlreadyValidated):
		return fiber.StatusConflict, "ALREADY_VALIDATED"
	case errors.Is(err, domain.ErrInvalidTransition):
		return fiber.StatusConflict, "INVALID_TRANSITION"
	case errors.Is(err, domain.ErrInsufficientStock):
		return fiber.StatusConflict, "INSUFFICIENT_STOCK"
	case errors.Is(err, domain.ErrDuplicateIdentifier):
		return fiber.StatusConflict, "DUPLICATE_IDENTIFIER"
	case errors.Is(err, domain.ErrConcurrencyConflict):
		return fiber.StatusServiceUnavailable, "CONCURRENCY_CONFLICT"
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, "UNAUTHORIZED"
	default:
		return fiber.StatusInternalServerError, "INTERNAL"
	}
}
