package handlers

import (
	"errors"

	"storefront/internal/apperr"
	"storefront/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// respondError writes the JSON failure body matching err. message describes
// the failed operation and is used where err carries no message of its own.
func respondError(c *fiber.Ctx, message string, err error) error {
	var verr *apperr.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": verr.Message,
			"errors":  verr.Fields,
		})
	}

	var ferr *fiber.Error
	switch {
	case errors.Is(err, apperr.ErrMissingCredential), errors.Is(err, apperr.ErrInvalidCredential):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": message})
	case errors.Is(err, apperr.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": message})
	case errors.Is(err, apperr.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	case errors.Is(err, apperr.ErrConflict), errors.Is(err, apperr.ErrAlreadyExists):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	case errors.As(err, &ferr):
		return c.Status(ferr.Code).JSON(fiber.Map{"message": ferr.Message})
	}

	logger.Error(c.UserContext()).Err(err).Str("path", c.Path()).Msg(message)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}
