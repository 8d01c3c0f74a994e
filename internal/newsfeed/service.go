// Package newsfeed runs the enrichment pipeline over live company news for a
// named group of tickers.
package newsfeed

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/newspulse/internal/datasource"
	"github.com/seenimoa/newspulse/internal/logging"
	"github.com/seenimoa/newspulse/internal/pipeline"
	"github.com/seenimoa/newspulse/pkg/models"
	"github.com/seenimoa/newspulse/pkg/utils"
)

// ErrUnknownGroup is returned for a group name that is not configured.
var ErrUnknownGroup = errors.New("unknown ticker group")

// ErrEmptyTicker is returned by RunTicker for a blank symbol.
var ErrEmptyTicker = errors.New("empty ticker")

// DefaultLookbackDays is the trailing news window.
const DefaultLookbackDays = 30

// maxConcurrentFetches bounds parallel news requests per run.
const maxConcurrentFetches = 4

// Groups maps a group name to its ticker symbols.
type Groups map[string][]string

// DefaultGroups returns the built-in ticker groups.
func DefaultGroups() Groups {
	return Groups{
		"Tech":       {"AAPL", "GOOGL", "MSFT", "AMZN", "NVDA", "META", "TSM", "AVGO", "ORCL", "ADBE", "CRM", "CSCO", "INTC", "AMD", "QCOM", "IBM"},
		"Automobile": {"TSLA", "F", "GM", "RIVN", "LCID", "TM", "HMC", "RACE"},
		"Oil & Gas":  {"XOM", "CVX", "SHEL", "TTE", "BP", "COP", "EOG", "SLB"},
		"Finance":    {"JPM", "BAC", "WFC", "MS", "GS", "C", "V", "MA", "AXP", "BLK", "SCHW", "PYPL"},
	}
}

// Names returns the group names in lexical order.
func (g Groups) Names() []string {
	names := make([]string, 0, len(g))
	for n := range g {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Lookup finds a group by name, ignoring case, and returns its canonical name.
func (g Groups) Lookup(name string) (string, []string, bool) {
	if tickers, ok := g[name]; ok {
		return name, tickers, true
	}
	for n, tickers := range g {
		if strings.EqualFold(n, name) {
			return n, tickers, true
		}
	}
	return "", nil, false
}

// Tracked returns the union of all groups' tickers.
func (g Groups) Tracked() pipeline.TickerSet {
	s := pipeline.NewTickerSet()
	for _, tickers := range g {
		for _, t := range tickers {
			s.Add(t)
		}
	}
	return s
}

// Deps wires a Service.
type Deps struct {
	News         datasource.NewsSource
	Prices       datasource.PriceSource
	Pipeline     *pipeline.Pipeline
	Groups       Groups
	LookbackDays int
	Logger       *log.Logger
}

// Service fetches news for a ticker group and runs the pipeline over it.
type Service struct {
	news     datasource.NewsSource
	prices   datasource.PriceSource
	pipeline *pipeline.Pipeline
	groups   Groups
	lookback int
	log      *log.Logger
	now      func() time.Time

	mu        sync.RWMutex
	listeners []func(models.RunResult)
}

// New creates a Service.
func New(d Deps) (*Service, error) {
	if d.News == nil {
		return nil, errors.New("newsfeed: news source is required")
	}
	if d.Pipeline == nil {
		return nil, errors.New("newsfeed: pipeline is required")
	}
	if d.Groups == nil {
		d.Groups = DefaultGroups()
	}
	if d.LookbackDays <= 0 {
		d.LookbackDays = DefaultLookbackDays
	}
	return &Service{
		news:     d.News,
		prices:   d.Prices,
		pipeline: d.Pipeline,
		groups:   d.Groups,
		lookback: d.LookbackDays,
		log:      logging.OrNop(d.Logger),
		now:      time.Now,
	}, nil
}

// Groups returns the configured ticker groups.
func (s *Service) Groups() Groups { return s.groups }

// OnResult registers fn to be called after every successful run.
func (s *Service) OnResult(fn func(models.RunResult)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// RunGroup runs the pipeline over the trailing news of every ticker in group.
func (s *Service) RunGroup(ctx context.Context, group string) (*models.RunResult, error) {
	name, tickers, ok := s.groups.Lookup(group)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGroup, group)
	}
	return s.run(ctx, name, tickers)
}

// RunTicker runs the pipeline over a single ticker's trailing news.
func (s *Service) RunTicker(ctx context.Context, ticker string) (*models.RunResult, error) {
	symbol := pipeline.NormalizeTicker(ticker)
	if symbol == "" {
		return nil, ErrEmptyTicker
	}
	return s.run(ctx, symbol, []string{symbol})
}

func (s *Service) run(ctx context.Context, name string, tickers []string) (*models.RunResult, error) {
	runID := uuid.NewString()
	logger := *s.log
	logger.Context = log.NewContext(nil).Str("run_id", runID).Str("group", name).Value()

	from, to := utils.TrailingWindow(s.now(), s.lookback)
	cache := pipeline.NewPriceCache()
	fetch := s.fetchPrice()

	start := time.Now()
	perTicker := make([][]models.RawArticle, len(tickers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, t := range tickers {
		symbol := pipeline.NormalizeTicker(t)
		g.Go(func() error {
			articles, err := s.news.FetchCompanyNews(gctx, symbol, from, to)
			if err != nil {
				return fmt.Errorf("fetch news %s: %w", symbol, err)
			}
			articles = dropBlankHeadlines(articles, symbol, &logger)
			if len(articles) == 0 {
				perTicker[i] = articles
				return nil
			}
			price := cache.GetOrFetch(gctx, symbol, fetch)
			if !price.Found() {
				logger.Warn().Str("ticker", symbol).Err(price.Err).Msg("could not fetch price for primary ticker")
			}
			for j := range articles {
				articles[j].Ticker = symbol
				articles[j].TickerPrice = price.Ptr()
			}
			perTicker[i] = articles
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("news fetch failed")
		return nil, err
	}

	var raw []models.RawArticle
	for _, articles := range perTicker {
		raw = append(raw, articles...)
	}

	articles, stats, err := s.pipeline.EnrichAndDetect(ctx, raw, pipeline.TickerContext{Cache: cache, Fetch: fetch})
	if err != nil {
		logger.Error().Err(err).Msg("pipeline failed")
		return nil, err
	}

	logger.Info().
		Int("fetched", len(raw)).
		Int("articles", len(articles)).
		Int("anomalies", stats.Anomalies).
		Int("quotes", cache.Len()).
		Dur("took", time.Since(start)).
		Msg("run complete")

	normalized := make([]string, len(tickers))
	for i, t := range tickers {
		normalized[i] = pipeline.NormalizeTicker(t)
	}
	result := models.RunResult{
		RunID:     runID,
		Group:     name,
		Tickers:   normalized,
		Articles:  articles,
		Stats:     stats,
		FetchedAt: to,
	}
	s.notify(result)
	return &result, nil
}

// dropBlankHeadlines removes provider items with no headline. The pipeline
// rejects them, and one bad item must not sink a whole group run.
func dropBlankHeadlines(articles []models.RawArticle, ticker string, logger *log.Logger) []models.RawArticle {
	kept := articles[:0]
	for _, a := range articles {
		if strings.TrimSpace(a.Headline) == "" {
			logger.Warn().Str("ticker", ticker).Str("source", a.Source).Str("url", a.URL).Msg("dropping article without headline")
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

func (s *Service) fetchPrice() pipeline.FetchFunc {
	if s.prices == nil {
		return nil
	}
	return s.prices.Quote
}

func (s *Service) notify(r models.RunResult) {
	s.mu.RLock()
	listeners := slices.Clone(s.listeners)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(r)
	}
}
