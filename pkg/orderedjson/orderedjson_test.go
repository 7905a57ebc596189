package orderedjson

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestForEach_KeepsDocumentOrder(t *testing.T) {
	data := []byte(`{"zeta": 1, "alpha": {"x": [1,2]}, "mid": "s"}`)

	var keys []string
	err := ForEach(data, func(key string, value json.RawMessage) error {
		keys = append(keys, key)
		return nil
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := []string{"zeta", "alpha", "mid"}
	if len(keys) != len(want) {
		t.Fatalf("expected %d keys, got %d", len(want), len(keys))
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("key %d: expected '%s', got '%s'", i, want[i], keys[i])
		}
	}
}

func TestForEach_RejectsNonObject(t *testing.T) {
	err := ForEach([]byte(`[1, 2]`), func(string, json.RawMessage) error { return nil })
	if !errors.Is(err, ErrNotObject) {
		t.Fatalf("expected ErrNotObject, got %v", err)
	}
}

func TestForEach_RejectsTruncatedDocument(t *testing.T) {
	err := ForEach([]byte(`{"a": "b"`), func(string, json.RawMessage) error { return nil })
	if err == nil {
		t.Fatal("expected error for truncated document")
	}
}

func TestStringPairs(t *testing.T) {
	pairs, err := StringPairs([]byte(`{"Bloco+ Bot": "Bloco mais Bot", "kit STEAM": "kit Istim"}`))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(pairs))
	}
	if pairs[0].Key != "Bloco+ Bot" || pairs[0].Value != "Bloco mais Bot" {
		t.Errorf("unexpected first pair %+v", pairs[0])
	}

	if _, err := StringPairs([]byte(`{"a": 1}`)); err == nil {
		t.Error("expected error for non-string member")
	}
}
