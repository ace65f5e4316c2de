package handlers

import (
	"errors"

	"github.com/maigenai/fingenius/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// serviceError writes the JSON error for a service failure. Unknown errors are logged and
// reported as a 500 with fallback as the message.
func serviceError(c *fiber.Ctx, logger *zap.Logger, err error, fallback string) error {
	status := fiber.StatusInternalServerError
	message := fallback

	switch {
	case errors.Is(err, service.ErrDocumentNotFound), errors.Is(err, service.ErrDisputeNotFound):
		status, message = fiber.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrForbidden):
		status, message = fiber.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrUnsupportedFileType),
		errors.Is(err, service.ErrInvalidPDF),
		errors.Is(err, service.ErrDisputeReasonRequired),
		errors.Is(err, service.ErrInvalidDisputeStatus):
		status, message = fiber.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrDocumentBusy), errors.Is(err, service.ErrDisputeTransitionDenied):
		status, message = fiber.StatusConflict, err.Error()
	case errors.Is(err, service.ErrQueueUnavailable):
		status, message = fiber.StatusServiceUnavailable, "Document saved but processing could not be queued"
	default:
		logger.Error(fallback, zap.Error(err))
	}

	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

func getUserID(c *fiber.Ctx) (uuid.UUID, error) {
	userIDStr, ok := c.Locals("userID").(string)
	if !ok {
		return uuid.Nil, fiber.ErrUnauthorized
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, err
	}

	return userID, nil
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "Unauthorized",
	})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Invalid request body",
	})
}

func parseIDParam(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}
