package knowledge

import (
	"strings"

	"github.com/seu-repo/bloquito/internal/domain"
)

const (
	substringWeight = 2.0
	tokenWeight     = 0.5
)

// NotLoadedMessage is answered while no knowledge base is available.
const NotLoadedMessage = "Base de conhecimento ainda não foi carregada. Aguarde um momento."

// NotLoadedEntry is the sentinel returned by Match for an empty base.
func NotLoadedEntry() domain.KnowledgeEntry {
	return domain.KnowledgeEntry{
		Key:      "not_loaded",
		Response: NotLoadedMessage,
		Speech:   NotLoadedMessage,
	}
}

// Match scores every entry except the default one against input and returns
// the strictly highest scorer. Ties keep the entry declared first. A best
// score of zero resolves to the default entry.
func Match(input string, kb *domain.KnowledgeBase) domain.MatchResult {
	if kb.Len() == 0 {
		return domain.MatchResult{Entry: NotLoadedEntry()}
	}

	normalized := Normalize(input)
	inputTokens := strings.Split(normalized, " ")

	var best domain.MatchResult
	found := false
	for _, entry := range kb.Entries() {
		if entry.Key == domain.DefaultEntryKey {
			continue
		}
		score := Score(normalized, inputTokens, entry.Keywords)
		if score > best.Score {
			best = domain.MatchResult{Entry: entry, Score: score}
			found = true
		}
	}

	if found {
		return best
	}

	def, ok := kb.Default()
	if !ok {
		return domain.MatchResult{Entry: NotLoadedEntry()}
	}
	return domain.MatchResult{Entry: def}
}

// Score sums keyword contributions for an already normalized input. The
// whole-keyword substring bonus and the per-token bonus both apply to the
// same keyword, so a full hit counts twice.
func Score(normalized string, inputTokens []string, keywords []string) float64 {
	var score float64
	for _, keyword := range keywords {
		nk := Normalize(keyword)

		if strings.Contains(normalized, nk) {
			score += substringWeight
		}

		for _, in := range inputTokens {
			for _, kw := range strings.Split(nk, " ") {
				if strings.Contains(in, kw) || strings.Contains(kw, in) {
					score += tokenWeight
				}
			}
		}
	}
	return score
}
