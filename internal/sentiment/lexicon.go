package sentiment

import (
	"context"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/seenimoa/newspulse/pkg/models"
)

// ------------------------------------------------------------------
// Keyword-based sentiment scorer (offline, no model server needed).
// When a model endpoint is configured the service uses ModelClient
// instead; this scorer is the deterministic fallback.
// ------------------------------------------------------------------

// bullish / bearish keyword dictionaries (lowercase).
var bullishWords = map[string]float64{
	"bullish": 0.7, "rally": 0.6, "rallies": 0.6, "surge": 0.7, "surges": 0.7,
	"soar": 0.7, "soars": 0.7, "jump": 0.5, "jumps": 0.5, "rise": 0.4, "rises": 0.4,
	"gain": 0.4, "gains": 0.4, "upbeat": 0.5, "positive": 0.4, "growth": 0.4,
	"upgrade": 0.6, "outperform": 0.6, "buy": 0.5, "strong": 0.4, "recovery": 0.5,
	"breakout": 0.6, "record high": 0.7, "all-time high": 0.7, "beat": 0.5,
	"beats": 0.5, "exceeds": 0.5, "beats estimates": 0.6, "expansion": 0.4,
	"profit": 0.3, "dividend": 0.4, "raises guidance": 0.6,
}

var bearishWords = map[string]float64{
	"bearish": 0.7, "crash": 0.8, "plunge": 0.7, "plunges": 0.7, "slump": 0.6,
	"slumps": 0.6, "tumble": 0.6, "tumbles": 0.6, "fall": 0.4, "falls": 0.4,
	"drop": 0.4, "drops": 0.4, "negative": 0.4, "downgrade": 0.6,
	"underperform": 0.6, "sell": 0.5, "weak": 0.4, "decline": 0.5,
	"declines": 0.5, "loss": 0.4, "losses": 0.4, "selloff": 0.7,
	"correction": 0.5, "default": 0.7, "fraud": 0.8, "lawsuit": 0.5,
	"investigation": 0.5, "cut": 0.3, "cuts": 0.3, "miss": 0.5, "misses": 0.5,
	"warning": 0.5, "concern": 0.3, "concerns": 0.3, "recall": 0.5,
}

// neutralMass is the weight given to the neutral class when any keyword
// matches, so a single weak keyword does not yield a near-certain score.
const neutralMass = 1.0

type weightedPattern struct {
	re     *regexp.Regexp
	weight float64
}

// Lexicon is an offline keyword scorer. It is safe for concurrent use.
type Lexicon struct {
	bullish []weightedPattern
	bearish []weightedPattern
}

// NewLexicon returns a scorer over the built-in dictionaries.
func NewLexicon() *Lexicon {
	return &Lexicon{
		bullish: compileWords(bullishWords),
		bearish: compileWords(bearishWords),
	}
}

func compileWords(words map[string]float64) []weightedPattern {
	out := make([]weightedPattern, 0, len(words))
	for _, w := range slices.Sorted(maps.Keys(words)) {
		out = append(out, weightedPattern{
			re:     regexp.MustCompile(`\b` + regexp.QuoteMeta(w) + `\b`),
			weight: words[w],
		})
	}
	return out
}

// Score weighs bullish against bearish keywords found in text. Text with no
// keyword is neutral.
func (l *Lexicon) Score(_ context.Context, text string) models.Sentiment {
	lower := strings.ToLower(text)
	bull := sumMatches(l.bullish, lower)
	bear := sumMatches(l.bearish, lower)
	if bull == 0 && bear == 0 {
		return models.NeutralSentiment()
	}
	return normalize(bull, bear, neutralMass)
}

func sumMatches(patterns []weightedPattern, text string) float64 {
	total := 0.0
	for _, p := range patterns {
		if p.re.MatchString(text) {
			total += p.weight
		}
	}
	return total
}
