package knowledge

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/seu-repo/bloquito/internal/domain"
	"github.com/seu-repo/bloquito/internal/mocks"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

const sampleKnowledge = `{
	"saudacao": {"keywords": ["olá", "bom dia"], "response": "Olá{userName}!", "speech": "Olá{userName}"},
	"parar": {"keywords": ["parar voz"], "response": "Tudo bem. {stopAction}", "action": "stop_voice"},
	"default": {"response": "Não entendi.", "speech": "Não entendi"}
}`

func TestParse_KeepsOrderAndFields(t *testing.T) {
	kb, err := Parse([]byte(sampleKnowledge))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	keys := kb.Keys()
	want := []string{"saudacao", "parar", "default"}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("key %d: expected '%s', got '%s'", i, want[i], keys[i])
		}
	}

	parar, _ := kb.Get("parar")
	if parar.Action != domain.ActionStopVoice {
		t.Errorf("expected action stop_voice, got '%s'", parar.Action)
	}
	if parar.SpeechTemplate() != parar.Response {
		t.Error("expected speech to default to response")
	}
}

func TestParse_MissingDefault(t *testing.T) {
	_, err := Parse([]byte(`{"a": {"keywords": ["x"], "response": "y"}}`))
	if !errors.Is(err, domain.ErrMissingDefault) {
		t.Fatalf("expected ErrMissingDefault, got %v", err)
	}
}

func TestParse_Malformed(t *testing.T) {
	for _, doc := range []string{`not json`, `{"default": {"response": 42}}`, `[]`} {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Errorf("expected error for %q", doc)
		}
	}
}

func TestLoadOrFallback_FetchError(t *testing.T) {
	// Arrange
	fetcher := &mocks.MockSourceFetcher{
		FetchFunc: func(ctx context.Context, location string) ([]byte, error) {
			return nil, errors.New("connection refused")
		},
	}
	loader := NewLoader(fetcher, newTestLogger())

	// Act
	kb := loader.LoadOrFallback(context.Background(), "https://example.com/knowledge.json")

	// Assert
	if kb.Len() != 1 {
		t.Fatalf("expected fallback with 1 entry, got %d", kb.Len())
	}
	def, ok := kb.Default()
	if !ok || def.Response != FallbackMessage {
		t.Errorf("expected fallback apology, got '%s'", def.Response)
	}
}

func TestStore_Reload(t *testing.T) {
	calls := 0
	fetcher := &mocks.MockSourceFetcher{
		FetchFunc: func(ctx context.Context, location string) ([]byte, error) {
			calls++
			return []byte(sampleKnowledge), nil
		},
	}
	store := NewStore(NewLoader(fetcher, newTestLogger()), "./data/knowledge.json")

	if store.Ready() {
		t.Fatal("expected store not ready before first load")
	}
	if got := store.Match("oi"); got.Entry.Response != NotLoadedMessage {
		t.Errorf("expected not-loaded sentinel, got '%s'", got.Entry.Response)
	}

	first := store.Reload(context.Background())
	second := store.Reload(context.Background())

	if calls != 2 {
		t.Errorf("expected 2 fetches, got %d", calls)
	}
	if first == second {
		t.Error("expected reload to replace the base wholesale")
	}
	if store.Current() != second {
		t.Error("expected current base to be the latest load")
	}
	if got := store.Match("bom dia"); got.Entry.Key != "saudacao" {
		t.Errorf("expected 'saudacao', got '%s'", got.Entry.Key)
	}
}

func TestStore_FailedReloadKeepsCurrentBase(t *testing.T) {
	// Arrange
	fail := false
	fetcher := &mocks.MockSourceFetcher{
		FetchFunc: func(ctx context.Context, location string) ([]byte, error) {
			if fail {
				return nil, errors.New("connection refused")
			}
			return []byte(sampleKnowledge), nil
		},
	}
	store := NewStore(NewLoader(fetcher, newTestLogger()), "https://example.com/knowledge.json")
	loaded := store.Reload(context.Background())

	// Act
	fail = true
	got := store.Reload(context.Background())

	// Assert
	if got != loaded || store.Current() != loaded {
		t.Fatal("expected the loaded base to survive a failed reload")
	}
	if store.Current().Len() != 3 {
		t.Errorf("expected 3 entries, got %d", store.Current().Len())
	}
	if m := store.Match("bom dia"); m.Entry.Key != "saudacao" {
		t.Errorf("expected 'saudacao', got '%s'", m.Entry.Key)
	}
}

func TestStore_FirstLoadFailureUsesFallback(t *testing.T) {
	fetcher := &mocks.MockSourceFetcher{
		FetchFunc: func(ctx context.Context, location string) ([]byte, error) {
			return nil, errors.New("connection refused")
		},
	}
	store := NewStore(NewLoader(fetcher, newTestLogger()), "https://example.com/knowledge.json")

	kb := store.Reload(context.Background())

	def, _ := kb.Default()
	if kb.Len() != 1 || def.Response != FallbackMessage {
		t.Errorf("expected the fallback base, got %d entries", kb.Len())
	}
}
