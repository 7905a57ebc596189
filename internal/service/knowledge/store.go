package knowledge

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/seu-repo/bloquito/internal/domain"
	"github.com/seu-repo/bloquito/internal/observability/telemetry"
)

// Store publishes the current knowledge base. A base is never modified in
// place; Reload swaps in a freshly loaded one.
type Store struct {
	current atomic.Pointer[domain.KnowledgeBase]
	loader  *Loader
	source  string
}

func NewStore(loader *Loader, source string) *Store {
	return &Store{
		loader: loader,
		source: source,
	}
}

// Current returns the active base, or nil before the first load.
func (s *Store) Current() *domain.KnowledgeBase {
	return s.current.Load()
}

func (s *Store) Replace(kb *domain.KnowledgeBase) {
	s.current.Store(kb)
}

// Reload loads the configured source. The built-in base is used only when
// nothing is loaded yet; a failed reload keeps the current base.
func (s *Store) Reload(ctx context.Context) *domain.KnowledgeBase {
	current := s.Current()
	if current == nil {
		kb := s.loader.LoadOrFallback(ctx, s.source)
		s.Replace(kb)
		return kb
	}

	kb, err := s.loader.Load(ctx, s.source)
	if err != nil {
		telemetry.KnowledgeLoadsTotal.WithLabelValues("knowledge", "kept").Inc()
		s.loader.log.Error("Failed to reload knowledge base, keeping current",
			zap.String("source", s.source),
			zap.Int("entries", current.Len()),
			zap.Error(err),
		)
		return current
	}

	telemetry.KnowledgeLoadsTotal.WithLabelValues("knowledge", "ok").Inc()
	s.loader.log.Info("Knowledge base reloaded",
		zap.String("source", s.source),
		zap.Int("entries", kb.Len()),
	)
	s.Replace(kb)
	return kb
}

// Ready reports whether a base has been loaded.
func (s *Store) Ready() bool {
	return s.Current() != nil
}

// Match runs Match against the current base.
func (s *Store) Match(input string) domain.MatchResult {
	return Match(input, s.Current())
}
