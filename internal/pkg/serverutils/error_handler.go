package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ramshaali/folio/internal/pkg/logger"
	"github.com/ramshaali/folio/internal/service"
	"github.com/ramshaali/folio/pkg/agent"
)

// NewErrorHandler maps errors returned by handlers to the JSON envelope.
func NewErrorHandler(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal server error"
		var details interface{}

		var verr *ValidationError
		var ferr *fiber.Error
		switch {
		case errors.As(err, &verr):
			code = fiber.StatusBadRequest
			message = "Validation failed"
			details = verr.Fields
		case errors.Is(err, service.ErrEmptyPrompt), errors.Is(err, service.ErrMissingClientID):
			code = fiber.StatusBadRequest
			message = err.Error()
		case errors.Is(err, agent.ErrNoOutput):
			message = "No output from agents"
		case errors.As(err, &ferr):
			code = ferr.Code
			message = ferr.Message
		}

		if code >= fiber.StatusInternalServerError {
			log.Error("HTTP", "Request failed", map[string]interface{}{
				"method": ctx.Method(),
				"path":   ctx.Path(),
				"error":  err.Error(),
			})
		}

		return ctx.Status(code).JSON(NewErrorResponse(code, message, details))
	}
}
