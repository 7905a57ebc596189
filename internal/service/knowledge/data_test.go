package knowledge

import (
	"os"
	"testing"

	"github.com/seu-repo/bloquito/internal/domain"
)

func TestShippedKnowledgeBase(t *testing.T) {
	data, err := os.ReadFile("../../../data/knowledge.json")
	if err != nil {
		t.Fatalf("failed to read knowledge base: %v", err)
	}

	kb, err := Parse(data)
	if err != nil {
		t.Fatalf("expected the shipped base to parse, got %v", err)
	}

	tests := []struct {
		input string
		key   string
	}{
		{"me fale do ESP32", "esp32"},
		{"pode parar", "parar"},
		{"xyz", domain.DefaultEntryKey},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Match(tt.input, kb).Entry.Key; got != tt.key {
				t.Errorf("expected %q, got %q", tt.key, got)
			}
		})
	}

	if entry, _ := kb.Get("parar"); entry.Action != domain.ActionStopVoice {
		t.Errorf("expected parar to stop voice mode, got %q", entry.Action)
	}
}
