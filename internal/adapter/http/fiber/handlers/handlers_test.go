package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/bloquito/internal/mocks"
	"github.com/seu-repo/bloquito/internal/service/chat"
	"github.com/seu-repo/bloquito/internal/service/knowledge"
	"github.com/seu-repo/bloquito/internal/service/speech"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

type recordingBroadcaster struct {
	events []string
	data   []any
}

func (b *recordingBroadcaster) Broadcast(eventType string, data any) error {
	b.events = append(b.events, eventType)
	b.data = append(b.data, data)
	return nil
}

func decodeBody(t *testing.T, body io.Reader, v any) {
	t.Helper()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
}

func newChatApp(t *testing.T) (*fiber.App, *chat.Service) {
	t.Helper()
	service := chat.NewService(mocks.NewMockChatRepository(), mocks.NewMockProfileRepository(), 30, newTestLogger())
	app := fiber.New()
	NewChatHandler(service, newTestLogger()).RegisterRoutes(app.Group("/api/v1"))
	return app, service
}

func TestChatHandler_ListAndGet(t *testing.T) {
	// Arrange
	app, service := newChatApp(t)
	session, err := service.Create(context.Background(), "c1", "Bia")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Act
	listResp, _ := app.Test(httptest.NewRequest("GET", "/api/v1/clients/c1/chats", nil))
	getResp, _ := app.Test(httptest.NewRequest("GET", "/api/v1/clients/c1/chats/"+session.ID, nil))
	otherResp, _ := app.Test(httptest.NewRequest("GET", "/api/v1/clients/c2/chats/"+session.ID, nil))

	// Assert
	var list []map[string]any
	decodeBody(t, listResp.Body, &list)
	if len(list) != 1 || list[0]["id"] != session.ID {
		t.Errorf("expected one summary for %s, got %v", session.ID, list)
	}
	if getResp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", getResp.StatusCode)
	}
	if otherResp.StatusCode != fiber.StatusNotFound {
		t.Errorf("expected sessions to be scoped by client, got %d", otherResp.StatusCode)
	}
}

func TestChatHandler_Delete(t *testing.T) {
	app, service := newChatApp(t)
	session, _ := service.Create(context.Background(), "c1", "")

	resp, _ := app.Test(httptest.NewRequest("DELETE", "/api/v1/clients/c1/chats/"+session.ID, nil))

	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if _, err := service.Get(context.Background(), "c1", session.ID); err != chat.ErrSessionNotFound {
		t.Errorf("expected the session to be gone, got %v", err)
	}
}

func TestChatHandler_Profile(t *testing.T) {
	// Arrange
	app, _ := newChatApp(t)

	// Act
	missing, _ := app.Test(httptest.NewRequest("GET", "/api/v1/clients/c1/profile", nil))
	req := httptest.NewRequest("PUT", "/api/v1/clients/c1/profile", strings.NewReader(`{"name": "  "}`))
	req.Header.Set("Content-Type", "application/json")
	updated, _ := app.Test(req)

	// Assert
	if missing.StatusCode != fiber.StatusNotFound {
		t.Errorf("expected 404 before a name is stored, got %d", missing.StatusCode)
	}
	var body map[string]string
	decodeBody(t, updated.Body, &body)
	if body["name"] != chat.DeclinedName {
		t.Errorf("expected a blank name to become %q, got %q", chat.DeclinedName, body["name"])
	}
}

func newKnowledgeApp(t *testing.T, doc string) (*fiber.App, *recordingBroadcaster) {
	t.Helper()
	fetcher := &mocks.MockSourceFetcher{
		FetchFunc: func(ctx context.Context, location string) ([]byte, error) {
			if strings.HasSuffix(location, "replacements.json") {
				return []byte(`{"words": {"ESP32": "E S P trinta e dois"}}`), nil
			}
			return []byte(doc), nil
		},
	}
	logger := newTestLogger()
	store := knowledge.NewStore(knowledge.NewLoader(fetcher, logger), "knowledge.json")
	store.Reload(context.Background())
	registry := speech.NewRegistry(fetcher, "replacements.json", logger)

	broadcaster := &recordingBroadcaster{}
	app := fiber.New()
	NewKnowledgeHandler(store, registry, broadcaster, logger).RegisterRoutes(app.Group("/api/v1"))
	return app, broadcaster
}

func TestKnowledgeHandler_Match(t *testing.T) {
	// Arrange
	app, _ := newKnowledgeApp(t, `{
		"esp32": {"keywords": ["esp32"], "response": "O ESP32 tem Wi-Fi."},
		"default": {"response": "Não entendi."}
	}`)
	req := httptest.NewRequest("POST", "/api/v1/knowledge/match", strings.NewReader(`{"text": "fale do ESP32"}`))
	req.Header.Set("Content-Type", "application/json")

	// Act
	resp, err := app.Test(req)

	// Assert
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var body map[string]any
	decodeBody(t, resp.Body, &body)
	if body["key"] != "esp32" {
		t.Errorf("expected esp32, got %v", body["key"])
	}
	if body["speech"] != "O E S P trinta e dois tem WiFi." {
		t.Errorf("unexpected speech %v", body["speech"])
	}
}

func TestKnowledgeHandler_ReloadBroadcasts(t *testing.T) {
	// Arrange
	app, broadcaster := newKnowledgeApp(t, `{"default": {"response": "Não entendi."}}`)

	// Act
	resp, _ := app.Test(httptest.NewRequest("POST", "/api/v1/knowledge/reload", nil))

	// Assert
	var result ReloadResult
	decodeBody(t, resp.Body, &result)
	if result.Entries != 1 || result.ReplacementRules != 1 {
		t.Errorf("unexpected reload result %+v", result)
	}
	if len(broadcaster.events) != 1 || broadcaster.events[0] != "knowledge_reloaded" {
		t.Errorf("expected one knowledge_reloaded broadcast, got %v", broadcaster.events)
	}
}
