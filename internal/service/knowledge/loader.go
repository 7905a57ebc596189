package knowledge

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/seu-repo/bloquito/internal/domain"
	"github.com/seu-repo/bloquito/internal/observability/telemetry"
	"github.com/seu-repo/bloquito/internal/ports"
	"github.com/seu-repo/bloquito/pkg/orderedjson"
)

// FallbackMessage is the only answer of the built-in base used when the
// configured source cannot be loaded.
const FallbackMessage = "Desculpe, houve um erro ao carregar minha base de conhecimento. Algumas funcionalidades podem estar limitadas."

type entryDocument struct {
	Keywords []string `json:"keywords"`
	Response string   `json:"response"`
	Speech   string   `json:"speech"`
	Action   string   `json:"action"`
}

// Parse decodes a knowledge document, keeping the declaration order of its
// entries.
func Parse(data []byte) (*domain.KnowledgeBase, error) {
	var entries []domain.KnowledgeEntry
	err := orderedjson.ForEach(data, func(key string, raw json.RawMessage) error {
		var doc entryDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("entry %q: %w", key, err)
		}
		entries = append(entries, domain.KnowledgeEntry{
			Key:      key,
			Keywords: doc.Keywords,
			Response: doc.Response,
			Speech:   doc.Speech,
			Action:   domain.Action(doc.Action),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse knowledge base: %w", err)
	}

	return domain.NewKnowledgeBase(entries)
}

// FallbackBase holds a single default entry with an apology.
func FallbackBase() *domain.KnowledgeBase {
	kb, _ := domain.NewKnowledgeBase([]domain.KnowledgeEntry{{
		Key:      domain.DefaultEntryKey,
		Response: FallbackMessage,
		Speech:   FallbackMessage,
	}})
	return kb
}

type Loader struct {
	fetcher ports.SourceFetcher
	log     *zap.Logger
}

func NewLoader(fetcher ports.SourceFetcher, log *zap.Logger) *Loader {
	return &Loader{
		fetcher: fetcher,
		log:     log,
	}
}

// Load fetches and parses the knowledge source.
func (l *Loader) Load(ctx context.Context, source string) (*domain.KnowledgeBase, error) {
	data, err := l.fetcher.Fetch(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch knowledge base: %w", err)
	}
	return Parse(data)
}

// LoadOrFallback never fails: a broken source is logged and replaced by
// FallbackBase.
func (l *Loader) LoadOrFallback(ctx context.Context, source string) *domain.KnowledgeBase {
	kb, err := l.Load(ctx, source)
	if err != nil {
		telemetry.KnowledgeLoadsTotal.WithLabelValues("knowledge", "fallback").Inc()
		l.log.Error("Failed to load knowledge base, using fallback",
			zap.String("source", source),
			zap.Error(err),
		)
		return FallbackBase()
	}

	telemetry.KnowledgeLoadsTotal.WithLabelValues("knowledge", "ok").Inc()
	l.log.Info("Knowledge base loaded",
		zap.String("source", source),
		zap.Int("entries", kb.Len()),
	)
	return kb
}
