package sentiment

import (
	"context"
	"math"
	"testing"

	"github.com/seenimoa/newspulse/pkg/models"
)

func sumOf(s models.Sentiment) float64 { return s.Positive + s.Negative + s.Neutral }

func TestLexiconBullish(t *testing.T) {
	s := NewLexicon().Score(context.Background(), "apple shares rally on strong growth and record high revenue")
	if s.Positive <= s.Negative {
		t.Errorf("expected positive > negative for bullish text, got %+v", s)
	}
	if math.Abs(sumOf(s)-1) > 1e-3 {
		t.Errorf("triple should sum to 1, got %.4f", sumOf(s))
	}
}

func TestLexiconBearish(t *testing.T) {
	s := NewLexicon().Score(context.Background(), "stocks plunge amid fraud investigation concerns")
	if s.Negative <= s.Positive {
		t.Errorf("expected negative > positive for bearish text, got %+v", s)
	}
	if math.Abs(sumOf(s)-1) > 1e-3 {
		t.Errorf("triple should sum to 1, got %.4f", sumOf(s))
	}
}

func TestLexiconNeutral(t *testing.T) {
	s := NewLexicon().Score(context.Background(), "company announces new office location in austin")
	if s != models.NeutralSentiment() {
		t.Errorf("expected neutral triple, got %+v", s)
	}
}

func TestLexiconWholeWordsOnly(t *testing.T) {
	// "glossy" contains "loss", "buyout" contains "buy".
	s := NewLexicon().Score(context.Background(), "glossy brochure for the buyout")
	if s != models.NeutralSentiment() {
		t.Errorf("substring hits should not score, got %+v", s)
	}
}

func TestLexiconDeterministic(t *testing.T) {
	l := NewLexicon()
	text := "profit beats estimates but guidance cut raises concerns"
	first := l.Score(context.Background(), text)
	for i := 0; i < 20; i++ {
		if got := l.Score(context.Background(), text); got != first {
			t.Fatalf("score changed between calls: %+v vs %+v", first, got)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name          string
		pos, neg, neu float64
		want          models.Sentiment
	}{
		{"all zero", 0, 0, 0, models.NeutralSentiment()},
		{"only positive", 2, 0, 0, models.Sentiment{Positive: 1}},
		{"thirds", 1, 1, 1, models.Sentiment{Positive: 0.3333, Negative: 0.3333, Neutral: 0.3333}},
		{"negative clamped", -1, 1, 1, models.Sentiment{Negative: 0.5, Neutral: 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalize(tt.pos, tt.neg, tt.neu); got != tt.want {
				t.Errorf("normalize(%v, %v, %v) = %+v, want %+v", tt.pos, tt.neg, tt.neu, got, tt.want)
			}
		})
	}
}

func TestScorerFunc(t *testing.T) {
	want := models.Sentiment{Positive: 0.8, Negative: 0.1, Neutral: 0.1}
	var s Scorer = ScorerFunc(func(context.Context, string) models.Sentiment { return want })
	if got := s.Score(context.Background(), "x"); got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}
