package middleware

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/bloquito/internal/infrastructure/circuitbreaker"
	"github.com/seu-repo/bloquito/pkg/config"
)

// CircuitBreaker sheds API traffic while handlers keep failing with 5xx.
func CircuitBreaker(cfg config.CircuitBreakerConfig, log *zap.Logger) fiber.Handler {
	cb := circuitbreaker.New("bloquito-api", cfg, log)

	return func(c *fiber.Ctx) error {
		var handlerErr error
		_, err := cb.Execute(func() (interface{}, error) {
			handlerErr = c.Next()
			if isServerFailure(c, handlerErr) {
				return nil, fiber.ErrInternalServerError
			}
			return nil, nil
		})

		if circuitbreaker.IsOpen(err) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Service temporarily unavailable",
			})
		}

		return handlerErr
	}
}

func isServerFailure(c *fiber.Ctx, err error) bool {
	if err != nil {
		if e, ok := err.(*fiber.Error); ok {
			return e.Code >= fiber.StatusInternalServerError
		}
		return true
	}
	return c.Response().StatusCode() >= fiber.StatusInternalServerError
}
