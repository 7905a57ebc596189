package health

import (
	"github.com/gofiber/fiber/v2"
)

// FiberHandler serves the liveness and readiness checks used by the
// orchestrator and by the widget's status badge.
type FiberHandler struct {
	service *Service
}

func NewFiberHandler(service *Service) *FiberHandler {
	return &FiberHandler{service: service}
}

func (h *FiberHandler) RegisterRoutes(router fiber.Router) {
	for _, path := range []string{"/health", "/healthz", "/live", "/livez"} {
		router.Get(path, h.Health)
	}
	router.Get("/ready", h.Ready)
	router.Get("/readyz", h.Ready)
	router.Get("/ready/:check", h.Check)
}

func (h *FiberHandler) Health(c *fiber.Ctx) error {
	return c.JSON(h.service.Health(c.Context()))
}

// Ready answers 503 only when a check is unhealthy. A degraded knowledge
// base still serves the fallback answer.
func (h *FiberHandler) Ready(c *fiber.Ctx) error {
	response := h.service.Ready(c.Context())
	if !response.Ready {
		c.Status(fiber.StatusServiceUnavailable)
	}
	return c.JSON(response)
}

// Check runs a single registered checker, e.g. /ready/knowledge.
func (h *FiberHandler) Check(c *fiber.Ctx) error {
	result, ok := h.service.Check(c.Context(), c.Params("check"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "unknown check")
	}
	if result.Status == StatusUnhealthy {
		c.Status(fiber.StatusServiceUnavailable)
	}
	return c.JSON(result)
}
