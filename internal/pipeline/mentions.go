package pipeline

import (
	"context"
	"fmt"
	"regexp"

	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/newspulse/internal/logging"
	"github.com/seenimoa/newspulse/pkg/models"
)

type tickerPattern struct {
	symbol string
	re     *regexp.Regexp
}

// MentionExtractor finds tracked tickers named in a headline and resolves
// their prices through a run's PriceCache. It is safe for concurrent use.
type MentionExtractor struct {
	tickers []tickerPattern
	log     *log.Logger
}

// NewMentionExtractor compiles a case-insensitive whole-word pattern for every
// tracked ticker.
func NewMentionExtractor(tracked TickerSet, logger *log.Logger) (*MentionExtractor, error) {
	e := &MentionExtractor{log: logging.OrNop(logger)}
	for _, sym := range tracked.Sorted() {
		re, err := wordPattern(sym, true)
		if err != nil {
			return nil, fmt.Errorf("ticker %q: %w", sym, err)
		}
		e.tickers = append(e.tickers, tickerPattern{symbol: sym, re: re})
	}
	return e, nil
}

// Find returns the tracked tickers named in the article's headline, excluding
// its own ticker, sorted by symbol. The summary is not scanned.
func (e *MentionExtractor) Find(a models.RawArticle) []string {
	self := NormalizeTicker(a.Ticker)
	var found []string
	for _, t := range e.tickers {
		if t.symbol == self {
			continue
		}
		if t.re.MatchString(a.Headline) {
			found = append(found, t.symbol)
		}
	}
	return found
}

// Extract returns the mentions in a's headline whose price resolves through
// cache. Tickers with no price are dropped. Lookups for distinct tickers run
// concurrently; the result keeps Find's symbol order.
func (e *MentionExtractor) Extract(ctx context.Context, a models.RawArticle, cache *PriceCache, fetch FetchFunc) []models.Mention {
	symbols := e.Find(a)
	if len(symbols) == 0 {
		return []models.Mention{}
	}

	results := make([]PriceResult, len(symbols))
	var g errgroup.Group
	for i, sym := range symbols {
		g.Go(func() error {
			results[i] = cache.GetOrFetch(ctx, sym, fetch)
			return nil
		})
	}
	_ = g.Wait()

	mentions := make([]models.Mention, 0, len(symbols))
	for i, r := range results {
		if !r.Found() {
			e.log.Debug().Str("ticker", symbols[i]).Str("headline", a.Headline).Err(r.Err).Msg("dropping mention without price")
			continue
		}
		mentions = append(mentions, models.Mention{Ticker: symbols[i], Price: r.Price})
	}
	return mentions
}
