package httpapi

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gamestarter/internal/common"
	"github.com/dmitrijs2005/gamestarter/internal/logging"
	"github.com/gofiber/fiber/v2"
)

type ErrorResponse struct {
	Message string `json:"message"`
}

func writeJSON(c *fiber.Ctx, status int, v any) error {
	return c.Status(status).JSON(v)
}

func writeError(c *fiber.Ctx, status int, message string) error {
	return writeJSON(c, status, ErrorResponse{Message: message})
}

// statusFor maps service errors to HTTP statuses. Internal details never
// reach the client.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrorDuplicateEmail):
		return fiber.StatusBadRequest, "email already registered"
	case errors.Is(err, common.ErrorValidation):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrorNotFound):
		return fiber.StatusNotFound, "not found"
	default:
		return fiber.StatusInternalServerError, "internal server error"
	}
}

func errorHandler(logger logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return writeError(c, fe.Code, fe.Message)
		}
		logger.Error(context.Background(), "unhandled request error", "path", c.Path(), "error", err)
		return writeError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
