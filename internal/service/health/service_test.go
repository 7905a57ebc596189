package health

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func TestReady_AggregatesChecks(t *testing.T) {
	tests := []struct {
		name      string
		pingErr   error
		entries   int
		wantReady bool
		want      Status
	}{
		{"all healthy", nil, 12, true, StatusHealthy},
		{"fallback knowledge", nil, 1, true, StatusDegraded},
		{"cache down", errors.New("connection refused"), 12, false, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := newTestLogger()
			service := NewService("v1.0.0", logger)
			service.RegisterChecker("cache", PingChecker(func(ctx context.Context) error { return tt.pingErr }, logger))
			service.RegisterChecker("knowledge", KnowledgeChecker(
				func() bool { return true },
				func() int { return tt.entries },
			))

			response := service.Ready(context.Background())

			if response.Ready != tt.wantReady || response.Status != tt.want {
				t.Errorf("got ready=%v status=%s, want ready=%v status=%s",
					response.Ready, response.Status, tt.wantReady, tt.want)
			}
			if response.Checks["cache"].Name != "cache" {
				t.Errorf("check name not set: %+v", response.Checks["cache"])
			}
		})
	}
}

func TestFiberHandler_Ready(t *testing.T) {
	logger := newTestLogger()
	service := NewService("v1.0.0", logger)
	service.RegisterChecker("db", PingChecker(func(ctx context.Context) error {
		return errors.New("down")
	}, logger))

	app := fiber.New()
	NewFiberHandler(service).RegisterRoutes(app)

	resp, err := app.Test(httptest.NewRequest("GET", "/ready", nil))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/healthz", nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestFiberHandler_SingleCheck(t *testing.T) {
	// Arrange
	service := NewService("v1.0.0", newTestLogger())
	service.RegisterChecker("knowledge", KnowledgeChecker(
		func() bool { return false },
		func() int { return 0 },
	))
	app := fiber.New()
	NewFiberHandler(service).RegisterRoutes(app)

	// Act
	resp, err := app.Test(httptest.NewRequest("GET", "/ready/knowledge", nil))

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("degraded check should answer 200, got %d", resp.StatusCode)
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/ready/queue", nil))
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("expected 404 for an unknown check, got %d", resp.StatusCode)
	}
}
