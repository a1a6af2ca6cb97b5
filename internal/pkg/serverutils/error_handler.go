package serverutils

import (
	"errors"

	"enculture-be/internal/pkg/apperror"
	"enculture-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler turns errors returned by handlers into JSON error bodies.
// Anything that is not a known kind becomes a 500 with a generic message.
func ErrorHandler(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		status, body := classify(err)
		if status >= fiber.StatusInternalServerError {
			log.Error("HTTP", "Request failed", map[string]interface{}{
				"method": ctx.Method(),
				"path":   ctx.Path(),
				"error":  err.Error(),
			})
		}
		return ctx.Status(status).JSON(body)
	}
}

// ErrorHandlerMiddleware applies ErrorHandler to errors from later handlers
// so that route groups mounted after it get the same mapping.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	handle := ErrorHandler(log)
	return func(ctx *fiber.Ctx) error {
		if err := ctx.Next(); err != nil {
			return handle(ctx, err)
		}
		return nil
	}
}

func classify(err error) (int, *ErrorBody) {
	var validationErr *ValidationError
	var fiberErr *fiber.Error

	switch {
	case errors.As(err, &validationErr):
		body := ErrorResponse(fiber.StatusBadRequest, "Validation failed")
		body.Errors = validationErr.Fields
		return fiber.StatusBadRequest, body
	case errors.Is(err, apperror.ErrNotFound):
		return fiber.StatusNotFound, ErrorResponse(fiber.StatusNotFound, err.Error())
	case errors.Is(err, apperror.ErrInvalidInput):
		return fiber.StatusBadRequest, ErrorResponse(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, apperror.ErrUnauthorized):
		return fiber.StatusUnauthorized, ErrorResponse(fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, apperror.ErrConflict):
		return fiber.StatusConflict, ErrorResponse(fiber.StatusConflict, err.Error())
	case errors.As(err, &fiberErr):
		return fiberErr.Code, ErrorResponse(fiberErr.Code, fiberErr.Message)
	default:
		return fiber.StatusInternalServerError, ErrorResponse(fiber.StatusInternalServerError, "Internal server error")
	}
}
