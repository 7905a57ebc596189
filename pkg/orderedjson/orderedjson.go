// Package orderedjson walks JSON objects in document order, which
// encoding/json maps do not preserve.
package orderedjson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrNotObject = errors.New("orderedjson: value is not an object")

// ForEach calls fn for every member of the top-level object in data, in the
// order the members appear. A null document is treated as an empty object.
func ForEach(data []byte, fn func(key string, value json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("orderedjson: %w", err)
	}
	if tok == nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return ErrNotObject
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("orderedjson: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("orderedjson: unexpected key token %v", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("orderedjson: member %q: %w", key, err)
		}
		if err := fn(key, raw); err != nil {
			return err
		}
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("orderedjson: %w", err)
	}
	if dec.More() {
		return errors.New("orderedjson: trailing data after object")
	}
	return nil
}

// Pair is one string member of an object.
type Pair struct {
	Key   string
	Value string
}

// StringPairs decodes an object of string values, keeping member order.
func StringPairs(data []byte) ([]Pair, error) {
	var pairs []Pair
	err := ForEach(data, func(key string, value json.RawMessage) error {
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return fmt.Errorf("orderedjson: member %q is not a string: %w", key, err)
		}
		pairs = append(pairs, Pair{Key: key, Value: s})
		return nil
	})
	return pairs, err
}
