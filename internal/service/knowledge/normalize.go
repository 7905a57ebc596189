package knowledge

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds text for keyword matching: lower-case, strip diacritics,
// turn anything that is not a letter, digit or space into a space, collapse
// runs of spaces and trim. Normalize(Normalize(x)) == Normalize(x).
func Normalize(text string) string {
	lowered := strings.ToLower(text)

	folded, _, err := transform.String(diacriticFolder(), lowered)
	if err != nil {
		folded = lowered
	}

	cleaned := strings.Map(func(r rune) rune {
		// Upper-case letters without a lower-case form (e.g. mathematical
		// capitals) are dropped like symbols.
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			return ' '
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, folded)

	return strings.Join(strings.Fields(cleaned), " ")
}

// transform.Transformer chains are stateful, so a fresh one is built per call.
func diacriticFolder() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}
