package speech

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/seu-repo/bloquito/internal/domain"
)

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// Transformer rewrites responses into text the synthesizer pronounces well.
// It is immutable and safe for concurrent use.
type Transformer struct {
	table domain.ReplacementTable
	rules []rule
}

// NewTransformer compiles the table. Originals are matched literally and
// case-insensitively; empty originals are skipped.
func NewTransformer(table domain.ReplacementTable) *Transformer {
	t := &Transformer{table: table}
	for _, group := range table.Groups() {
		for _, r := range group {
			if r.Original == "" {
				continue
			}
			t.rules = append(t.rules, rule{
				pattern:     regexp.MustCompile("(?i)" + regexp.QuoteMeta(r.Original)),
				replacement: r.Replacement,
			})
		}
	}
	return t
}

func (t *Transformer) Table() domain.ReplacementTable {
	return t.table
}

// ToSpeech applies words, then phrases, then symbols, each in declared order.
func (t *Transformer) ToSpeech(text string) string {
	for _, r := range t.rules {
		text = r.pattern.ReplaceAllLiteralString(text, r.replacement)
	}
	return text
}

// Speakable runs ToSpeech and strips what the synthesizer should not read.
func (t *Transformer) Speakable(text string) string {
	return Clean(t.ToSpeech(text))
}

// Clean drops every rune that is not a letter, digit, whitespace or one of
// ". , ! ?" and turns newlines into spaces.
func Clean(text string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == '\n':
			return ' '
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsSpace(r):
			return r
		case r == '.', r == ',', r == '!', r == '?':
			return r
		default:
			return -1
		}
	}, text)
	return cleaned
}
