package domain

// Replacement rewrites every case-insensitive occurrence of Original.
type Replacement struct {
	Original    string `json:"original"`
	Replacement string `json:"replacement"`
}

// ReplacementTable holds the pronunciation tables. Groups are applied in
// order: words, phrases, symbols.
type ReplacementTable struct {
	Words   []Replacement `json:"words"`
	Phrases []Replacement `json:"phrases"`
	Symbols []Replacement `json:"symbols"`
}

// Groups returns the sub-tables in application order.
func (t ReplacementTable) Groups() [][]Replacement {
	return [][]Replacement{t.Words, t.Phrases, t.Symbols}
}

func (t ReplacementTable) Len() int {
	return len(t.Words) + len(t.Phrases) + len(t.Symbols)
}

// Voice is a synthesizer voice reported by the client.
type Voice struct {
	Name string `json:"name"`
	Lang string `json:"lang"`
}

// VoiceOptions are sent along with every utterance.
type VoiceOptions struct {
	Voice  string  `json:"voice,omitempty"`
	Rate   float64 `json:"rate"`
	Pitch  float64 `json:"pitch"`
	Volume float64 `json:"volume"`
	Lang   string  `json:"lang"`
}
