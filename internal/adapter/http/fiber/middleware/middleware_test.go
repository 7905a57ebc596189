package middleware

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/bloquito/internal/service/chat"
	"github.com/seu-repo/bloquito/internal/service/voice"
	"github.com/seu-repo/bloquito/pkg/config"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func TestCircuitBreaker_OpensAfterFailures(t *testing.T) {
	// Arrange
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(newTestLogger())})
	app.Use(CircuitBreaker(config.CircuitBreakerConfig{
		MaxRequests:      2,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 0.5,
	}, newTestLogger()))
	app.Get("/fail", func(c *fiber.Ctx) error {
		return fiber.ErrInternalServerError
	})

	// Act
	var last int
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/fail", nil))
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		last = resp.StatusCode
	}

	// Assert
	if last != fiber.StatusServiceUnavailable {
		t.Errorf("expected 503 once open, got %d", last)
	}
}

func TestCircuitBreaker_ClientErrorsDoNotTrip(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(newTestLogger())})
	app.Use(CircuitBreaker(config.CircuitBreakerConfig{MaxRequests: 1, FailureThreshold: 0.1}, newTestLogger()))
	app.Get("/missing", func(c *fiber.Ctx) error {
		return fiber.ErrNotFound
	})

	for i := 0; i < 3; i++ {
		resp, _ := app.Test(httptest.NewRequest("GET", "/missing", nil))
		if resp.StatusCode != fiber.StatusNotFound {
			t.Fatalf("expected 404, got %d", resp.StatusCode)
		}
	}
}

func TestRateLimit_ClientIDDoesNotResetBudget(t *testing.T) {
	// Arrange
	app := fiber.New()
	app.Use(RateLimit(config.RateLimitingConfig{MaxRequests: 1, Window: time.Minute}, newTestLogger()))
	app.Post("/knowledge/reload", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	// Act
	first, _ := app.Test(httptest.NewRequest("POST", "/knowledge/reload?client_id=a", nil))
	second, _ := app.Test(httptest.NewRequest("POST", "/knowledge/reload?client_id=b", nil))
	anonymous, _ := app.Test(httptest.NewRequest("POST", "/knowledge/reload", nil))

	// Assert
	if first.StatusCode != fiber.StatusNoContent {
		t.Errorf("expected 204, got %d", first.StatusCode)
	}
	if second.StatusCode != fiber.StatusTooManyRequests {
		t.Errorf("expected a new client_id to share the budget, got %d", second.StatusCode)
	}
	if anonymous.StatusCode != fiber.StatusTooManyRequests {
		t.Errorf("expected 429 without client_id, got %d", anonymous.StatusCode)
	}
}

func TestErrorHandler_MapsServiceErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"fiber error", fiber.ErrUpgradeRequired, fiber.StatusUpgradeRequired},
		{"missing session", fmt.Errorf("load: %w", chat.ErrSessionNotFound), fiber.StatusNotFound},
		{"empty message", chat.ErrEmptyMessage, fiber.StatusBadRequest},
		{"not in voice mode", voice.ErrNotInVoiceMode, fiber.StatusConflict},
		{"unknown", errors.New("boom"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(newTestLogger())})
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("expected %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}
}

func TestNewCORS_Preflight(t *testing.T) {
	// Arrange
	app := fiber.New()
	app.Use(NewCORS(config.CORSConfig{AllowedOrigins: []string{"https://loja.example"}}))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	req := httptest.NewRequest("OPTIONS", "/", nil)
	req.Header.Set("Origin", "https://loja.example")
	req.Header.Set("Access-Control-Request-Method", "DELETE")

	// Act
	resp, err := app.Test(req)

	// Assert
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://loja.example" {
		t.Errorf("expected the configured origin, got %q", got)
	}
	if got := resp.Header.Get("Access-Control-Allow-Methods"); !strings.Contains(got, "DELETE") {
		t.Errorf("expected DELETE to be allowed, got %q", got)
	}
}
