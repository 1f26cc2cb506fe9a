package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/nodepulse/nodepulse/internal/logging"
	"github.com/nodepulse/nodepulse/internal/models"
	"github.com/nodepulse/nodepulse/internal/services"
)

// ErrorHandler returns a custom error handler middleware
func ErrorHandler(logger *logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"
		errCode := "ERROR"

		var fiberErr *fiber.Error
		var svcErr *services.ServiceError
		switch {
		case errors.As(err, &svcErr):
			code = fiber.StatusNotFound
			message = svcErr.Message
			errCode = svcErr.Code
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
			message = fiberErr.Message
		}

		logger.Error("Request error",
			"path", c.Path(),
			"method", c.Method(),
			"status", code,
			"error", err,
		)

		return c.Status(code).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    errCode,
				Message: message,
			},
		})
	}
}
