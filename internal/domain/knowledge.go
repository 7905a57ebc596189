package domain

import (
	"errors"
	"fmt"
)

// DefaultEntryKey identifies the fallback entry of a knowledge base.
const DefaultEntryKey = "default"

// Action is an optional tag attached to a knowledge entry.
type Action string

const (
	ActionNone      Action = ""
	ActionStopVoice Action = "stop_voice"
)

var (
	ErrMissingDefault   = errors.New("knowledge base has no default entry")
	ErrDuplicateEntry   = errors.New("duplicate knowledge entry")
	ErrEmptyDefaultText = errors.New("default entry has no response")
)

// KnowledgeEntry is one topic: the keywords that select it and the
// response templates returned when it wins.
type KnowledgeEntry struct {
	Key      string   `json:"key"`
	Keywords []string `json:"keywords"`
	Response string   `json:"response"`
	Speech   string   `json:"speech,omitempty"`
	Action   Action   `json:"action,omitempty"`
}

// SpeechTemplate returns the speech variant, falling back to the response.
func (e KnowledgeEntry) SpeechTemplate() string {
	if e.Speech != "" {
		return e.Speech
	}
	return e.Response
}

// KnowledgeBase is an ordered, read-only set of entries. Iteration order is
// the declaration order of the source document.
type KnowledgeBase struct {
	entries []KnowledgeEntry
	index   map[string]int
}

// NewKnowledgeBase validates entries and builds a base. Exactly one entry
// must use DefaultEntryKey; its keywords are dropped since it is never scored.
func NewKnowledgeBase(entries []KnowledgeEntry) (*KnowledgeBase, error) {
	kb := &KnowledgeBase{
		entries: make([]KnowledgeEntry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}

	for _, e := range entries {
		if _, exists := kb.index[e.Key]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateEntry, e.Key)
		}
		if e.Key == DefaultEntryKey {
			if e.Response == "" {
				return nil, ErrEmptyDefaultText
			}
			e.Keywords = nil
		}
		kb.index[e.Key] = len(kb.entries)
		kb.entries = append(kb.entries, e)
	}

	if _, ok := kb.index[DefaultEntryKey]; !ok {
		return nil, ErrMissingDefault
	}
	return kb, nil
}

// Len returns the number of entries, including the default one.
func (kb *KnowledgeBase) Len() int {
	if kb == nil {
		return 0
	}
	return len(kb.entries)
}

// Entries returns the entries in declaration order. Callers must not modify
// the returned slice.
func (kb *KnowledgeBase) Entries() []KnowledgeEntry {
	if kb == nil {
		return nil
	}
	return kb.entries
}

func (kb *KnowledgeBase) Get(key string) (KnowledgeEntry, bool) {
	if kb == nil {
		return KnowledgeEntry{}, false
	}
	i, ok := kb.index[key]
	if !ok {
		return KnowledgeEntry{}, false
	}
	return kb.entries[i], true
}

func (kb *KnowledgeBase) Default() (KnowledgeEntry, bool) {
	return kb.Get(DefaultEntryKey)
}

// Keys lists entry keys in declaration order.
func (kb *KnowledgeBase) Keys() []string {
	keys := make([]string, 0, kb.Len())
	for _, e := range kb.Entries() {
		keys = append(keys, e.Key)
	}
	return keys
}

// MatchResult is the winning entry of a match and its score.
type MatchResult struct {
	Entry KnowledgeEntry `json:"entry"`
	Score float64        `json:"score"`
}

// Confident reports whether any keyword contributed to the score.
func (r MatchResult) Confident() bool {
	return r.Score > 0
}
