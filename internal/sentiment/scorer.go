// Package sentiment scores financial text into a {positive, negative,
// neutral} probability triple.
//
// Scorers never return errors: a scorer that cannot produce a score returns
// models.NeutralSentiment, which callers treat as an ordinary result.
package sentiment

import (
	"context"
	"math"

	"github.com/seenimoa/newspulse/pkg/models"
)

// Scorer scores a span of text.
type Scorer interface {
	Score(ctx context.Context, text string) models.Sentiment
}

// ScorerFunc adapts a function to the Scorer interface.
type ScorerFunc func(ctx context.Context, text string) models.Sentiment

// Score calls f.
func (f ScorerFunc) Score(ctx context.Context, text string) models.Sentiment {
	return f(ctx, text)
}

// normalize turns non-negative weights into a triple that sums to 1 within
// rounding, each component rounded to 4 decimals. All-zero weights are neutral.
func normalize(pos, neg, neu float64) models.Sentiment {
	pos, neg, neu = math.Max(pos, 0), math.Max(neg, 0), math.Max(neu, 0)
	total := pos + neg + neu
	if total == 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return models.NeutralSentiment()
	}
	return models.Sentiment{
		Positive: round4(pos / total),
		Negative: round4(neg / total),
		Neutral:  round4(neu / total),
	}
}

func round4(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}
