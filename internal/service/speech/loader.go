package speech

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

// DefaultTable is the built-in table used when the configured one is broken.
func DefaultTable() domain.ReplacementTable {
	return domain.ReplacementTable{
		Words: []domain.Replacement{
			{Original: "STEAMAKER", Replacement: "Istim Maiquer"},
			{Original: "Bloco+", Replacement: "Bloco mais"},
			{Original: "ESP32", Replacement: "E S P trinta e dois"},
			{Original: "CorelLASER", Replacement: "Corel Laser"},
			{Original: "Asthor Barden", Replacement: "Asthor Bardem"},
			{Original: "LED", Replacement: "L E D"},
			{Original: "LEDs", Replacement: "L E Ds"},
			{Original: "DC", Replacement: "D C"},
		},
		Phrases: []domain.Replacement{
			{Original: "Bloco+ Bot", Replacement: "Bloco mais Bot"},
			{Original: "kit STEAM", Replacement: "kit Istim"},
			{Original: "projetos STEAM", Replacement: "projetos Istim"},
		},
		Symbols: []domain.Replacement{
			{Original: "+", Replacement: " mais "},
			{Original: "&", Replacement: " e "},
			{Original: "@", Replacement: " arroba "},
		},
	}
}

// ParseTable decodes {"words": {...}, "phrases": {...}, "symbols": {...}}
// keeping the member order of every sub-table. Unknown members are ignored.
func ParseTable(data []byte) (domain.ReplacementTable, error) {
	var table domain.ReplacementTable
	err := orderedjson.ForEach(data, func(key string, raw json.RawMessage) error {
		var target *[]domain.Replacement
		switch key {
		case "words":
			target = &table.Words
		case "phrases":
			target = &table.Phrases
		case "symbols":
			target = &table.Symbols
		default:
			return nil
		}

		pairs, err := orderedjson.StringPairs(raw)
		if err != nil {
			return fmt.Errorf("table %q: %w", key, err)
		}
		for _, p := range pairs {
			*target = append(*target, domain.Replacement{Original: p.Key, Replacement: p.Value})
		}
		return nil
	})
	if err != nil {
		return domain.ReplacementTable{}, fmt.Errorf("failed to parse replacement table: %w", err)
	}
	return table, nil
}

// LoadTable fetches and parses the replacement table, falling back to
// DefaultTable on any error.
func LoadTable(ctx context.Context, fetcher ports.SourceFetcher, source string, log *zap.Logger) domain.ReplacementTable {
	table, err := fetchTable(ctx, fetcher, source, log)
	if err != nil {
		telemetry.KnowledgeLoadsTotal.WithLabelValues("replacements", "fallback").Inc()
		log.Error("Failed to load voice replacements, using built-in table",
			zap.String("source", source),
			zap.Error(err),
		)
		return DefaultTable()
	}
	return table
}

func fetchTable(ctx context.Context, fetcher ports.SourceFetcher, source string, log *zap.Logger) (domain.ReplacementTable, error) {
	data, err := fetcher.Fetch(ctx, source)
	if err != nil {
		return domain.ReplacementTable{}, err
	}
	table, err := ParseTable(data)
	if err != nil {
		return domain.ReplacementTable{}, err
	}
	telemetry.KnowledgeLoadsTotal.WithLabelValues("replacements", "ok").Inc()
	log.Info("Voice replacements loaded",
		zap.String("source", source),
		zap.Int("rules", table.Len()),
	)
	return table, nil
}
