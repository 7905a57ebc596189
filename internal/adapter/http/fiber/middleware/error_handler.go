package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/bloquito/internal/service/chat"
	"github.com/seu-repo/bloquito/internal/service/voice"
)

// ErrorHandler maps service errors to HTTP statuses. Only 5xx responses
// are logged.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := statusFor(err)

		if code >= fiber.StatusInternalServerError {
			log.Error("Internal Server Error",
				zap.Error(err),
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
			)
		}

		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}

func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, chat.ErrSessionNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, chat.ErrEmptyMessage):
		return fiber.StatusBadRequest
	case errors.Is(err, voice.ErrNotInVoiceMode), errors.Is(err, voice.ErrUnknownVoice):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
