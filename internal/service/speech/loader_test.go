package speech

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/seu-repo/bloquito/internal/mocks"
)

func TestParseTable_KeepsOrder(t *testing.T) {
	table, err := ParseTable([]byte(`{
		"symbols": {"+": " mais "},
		"words": {"LEDs": "L E Ds", "LED": "L E D"},
		"phrases": {},
		"extra": {"ignored": true}
	}`))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(table.Words) != 2 || table.Words[0].Original != "LEDs" || table.Words[1].Original != "LED" {
		t.Errorf("unexpected words %+v", table.Words)
	}
	if len(table.Phrases) != 0 {
		t.Errorf("expected no phrases, got %d", len(table.Phrases))
	}
	if len(table.Symbols) != 1 || table.Symbols[0].Replacement != " mais " {
		t.Errorf("unexpected symbols %+v", table.Symbols)
	}
}

func TestLoadTable_FallbackOnMalformed(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	tests := []struct {
		name  string
		fetch func(ctx context.Context, location string) ([]byte, error)
	}{
		{"fetch error", func(ctx context.Context, location string) ([]byte, error) {
			return nil, errors.New("not found")
		}},
		{"malformed", func(ctx context.Context, location string) ([]byte, error) {
			return []byte(`{"words": {"a": 1}}`), nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &mocks.MockSourceFetcher{FetchFunc: tt.fetch}

			table := LoadTable(context.Background(), fetcher, "./data/voice-replacements.json", logger)

			if table.Len() != DefaultTable().Len() {
				t.Errorf("expected built-in table, got %d rules", table.Len())
			}
		})
	}
}
