package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/bloquito/internal/service/chat"
)

// ChatHandler exposes a client's stored history for export and support
// tooling. Live conversations go through the websocket.
type ChatHandler struct {
	service *chat.Service
	log     *zap.Logger
}

func NewChatHandler(service *chat.Service, log *zap.Logger) *ChatHandler {
	return &ChatHandler{
		service: service,
		log:     log,
	}
}

func (h *ChatHandler) RegisterRoutes(router fiber.Router) {
	clients := router.Group("/clients/:client_id")
	clients.Get("/chats", h.List)
	clients.Get("/chats/:id", h.Get)
	clients.Delete("/chats/:id", h.Delete)
	clients.Get("/profile", h.GetProfile)
	clients.Put("/profile", h.UpdateProfile)
}

func (h *ChatHandler) List(c *fiber.Ctx) error {
	chats, err := h.service.List(c.Context(), c.Params("client_id"))
	if err != nil {
		return err
	}
	return c.JSON(chats)
}

func (h *ChatHandler) Get(c *fiber.Ctx) error {
	session, err := h.service.Get(c.Context(), c.Params("client_id"), c.Params("id"))
	if errors.Is(err, chat.ErrSessionNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Chat not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(session)
}

func (h *ChatHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Context(), c.Params("client_id"), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ChatHandler) GetProfile(c *fiber.Ctx) error {
	name, ok, err := h.service.UserName(c.Context(), c.Params("client_id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
	}
	return c.JSON(fiber.Map{"name": name})
}

func (h *ChatHandler) UpdateProfile(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	name, err := h.service.SaveUserName(c.Context(), c.Params("client_id"), req.Name)
	if err != nil {
		h.log.Error("Failed to save user name", zap.String("client_id", c.Params("client_id")), zap.Error(err))
		return err
	}
	return c.JSON(fiber.Map{"name": name})
}
