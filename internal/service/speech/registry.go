package speech

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/seu-repo/bloquito/internal/observability/telemetry"
	"github.com/seu-repo/bloquito/internal/ports"
)

// Registry publishes the current transformer. Connections grab it once
// when they open, so a reload only affects new connections.
type Registry struct {
	current atomic.Pointer[Transformer]
	fetcher ports.SourceFetcher
	source  string
	log     *zap.Logger
}

// NewRegistry starts with the built-in table.
func NewRegistry(fetcher ports.SourceFetcher, source string, log *zap.Logger) *Registry {
	r := &Registry{
		fetcher: fetcher,
		source:  source,
		log:     log,
	}
	r.current.Store(NewTransformer(DefaultTable()))
	return r
}

func (r *Registry) Current() *Transformer {
	return r.current.Load()
}

// Reload fetches the configured table. On failure the current transformer
// stays, which is the built-in table until a load succeeds.
func (r *Registry) Reload(ctx context.Context) *Transformer {
	table, err := fetchTable(ctx, r.fetcher, r.source, r.log)
	if err != nil {
		telemetry.KnowledgeLoadsTotal.WithLabelValues("replacements", "kept").Inc()
		r.log.Error("Failed to reload voice replacements, keeping current table",
			zap.String("source", r.source),
			zap.Error(err),
		)
		return r.Current()
	}
	t := NewTransformer(table)
	r.current.Store(t)
	return t
}
