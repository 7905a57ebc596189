package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/bloquito/internal/service/knowledge"
	"github.com/seu-repo/bloquito/internal/service/speech"
)

// Broadcaster notifies every connected client.
type Broadcaster interface {
	Broadcast(eventType string, data any) error
}

// ReloadResult is returned by the reload endpoint and broadcast to clients.
type ReloadResult struct {
	Entries          int `json:"entries"`
	ReplacementRules int `json:"replacement_rules"`
}

type KnowledgeHandler struct {
	store       *knowledge.Store
	speech      *speech.Registry
	broadcaster Broadcaster
	log         *zap.Logger
}

func NewKnowledgeHandler(store *knowledge.Store, registry *speech.Registry, broadcaster Broadcaster, log *zap.Logger) *KnowledgeHandler {
	return &KnowledgeHandler{
		store:       store,
		speech:      registry,
		broadcaster: broadcaster,
		log:         log,
	}
}

func (h *KnowledgeHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/knowledge", h.List)
	router.Post("/knowledge/match", h.Match)
	router.Post("/knowledge/reload", h.Reload)
	router.Post("/speech/preview", h.PreviewSpeech)
}

// List returns the entries of the active base in declaration order.
func (h *KnowledgeHandler) List(c *fiber.Ctx) error {
	return c.JSON(h.store.Current().Entries())
}

// Match shows which entry would answer a text, without recording anything.
func (h *KnowledgeHandler) Match(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	result := h.store.Match(req.Text)
	return c.JSON(fiber.Map{
		"key":      result.Entry.Key,
		"score":    result.Score,
		"response": result.Entry.Response,
		"speech":   h.speech.Current().Speakable(result.Entry.SpeechTemplate()),
		"action":   result.Entry.Action,
	})
}

func (h *KnowledgeHandler) Reload(c *fiber.Ctx) error {
	return c.JSON(h.ReloadAll(c.Context()))
}

// ReloadAll reloads the knowledge base and the replacement table and tells
// the connected clients.
func (h *KnowledgeHandler) ReloadAll(ctx context.Context) ReloadResult {
	kb := h.store.Reload(ctx)
	t := h.speech.Reload(ctx)

	result := ReloadResult{
		Entries:          kb.Len(),
		ReplacementRules: t.Table().Len(),
	}
	if h.broadcaster != nil {
		if err := h.broadcaster.Broadcast("knowledge_reloaded", result); err != nil {
			h.log.Warn("Failed to broadcast reload", zap.Error(err))
		}
	}
	h.log.Info("Knowledge reloaded",
		zap.Int("entries", result.Entries),
		zap.Int("replacement_rules", result.ReplacementRules),
	)
	return result
}

// PreviewSpeech shows what the synthesizer would be asked to say.
func (h *KnowledgeHandler) PreviewSpeech(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}
	return c.JSON(fiber.Map{"speech": h.speech.Current().Speakable(req.Text)})
}
