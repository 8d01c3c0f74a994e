// Package pipeline enriches a batch of company news articles with an event
// category, cross-referenced ticker mentions, sentiment and a statistical
// anomaly flag.
//
// A run goes: validate → deduplicate → sample → enrich each article
// (classify, extract mentions, score sentiment, trusted-source flag) →
// detect anomalies over the whole enriched batch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/newspulse/internal/logging"
	"github.com/seenimoa/newspulse/internal/sentiment"
	"github.com/seenimoa/newspulse/pkg/models"
)

// ErrMalformedArticle is returned when a raw article lacks a required field.
var ErrMalformedArticle = errors.New("malformed article")

// DefaultTrustedSources lists the providers treated as credible.
var DefaultTrustedSources = []string{
	"Reuters", "Associated Press", "Bloomberg", "The Wall Street Journal",
	"Financial Times", "MarketWatch", "CNBC", "Business Wire", "PR Newswire",
	"GlobeNewswire", "Accesswire",
}

// DefaultConcurrency bounds how many articles are enriched at once.
const DefaultConcurrency = 8

// Options configures a Pipeline. Zero values fall back to the defaults, so a
// DeviationThreshold of 0 means DefaultDeviationThreshold.
type Options struct {
	SampleSize         int
	DeviationThreshold float64
	TrustedSources     []string
	Categories         CategoryTable
	Tracked            TickerSet
	Concurrency        int
}

// DefaultOptions returns the built-in configuration with an empty tracked set.
func DefaultOptions() Options {
	return Options{
		SampleSize:         DefaultSampleSize,
		DeviationThreshold: DefaultDeviationThreshold,
		TrustedSources:     DefaultTrustedSources,
		Categories:         DefaultCategoryTable(),
		Tracked:            TickerSet{},
		Concurrency:        DefaultConcurrency,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.SampleSize <= 0 {
		o.SampleSize = d.SampleSize
	}
	if o.DeviationThreshold <= 0 {
		o.DeviationThreshold = d.DeviationThreshold
	}
	if o.TrustedSources == nil {
		o.TrustedSources = d.TrustedSources
	}
	if len(o.Categories) == 0 {
		o.Categories = d.Categories
	}
	if o.Tracked == nil {
		o.Tracked = d.Tracked
	}
	if o.Concurrency <= 0 {
		o.Concurrency = d.Concurrency
	}
	return o
}

// TickerContext carries the per-run state shared across phases.
type TickerContext struct {
	// Cache is the run's price cache. Nil means a fresh cache for this run.
	Cache *PriceCache
	// Fetch resolves prices on cache misses.
	Fetch FetchFunc
}

// Pipeline is the enrichment-and-anomaly pipeline. It holds no per-run state
// and may serve concurrent runs as long as each run has its own PriceCache.
type Pipeline struct {
	opts       Options
	classifier *Classifier
	mentions   *MentionExtractor
	scorer     sentiment.Scorer
	sampler    *Sampler
	trusted    map[string]struct{}
	validate   *validator.Validate
	log        *log.Logger
}

// New builds a Pipeline. A nil scorer uses the offline lexicon scorer; a nil
// sampler uses an entropy-seeded one.
func New(opts Options, scorer sentiment.Scorer, sampler *Sampler, logger *log.Logger) (*Pipeline, error) {
	opts = opts.withDefaults()
	logger = logging.OrNop(logger)

	classifier, err := NewClassifier(opts.Categories)
	if err != nil {
		return nil, fmt.Errorf("event categories: %w", err)
	}
	mentions, err := NewMentionExtractor(opts.Tracked, logger)
	if err != nil {
		return nil, fmt.Errorf("tracked tickers: %w", err)
	}
	if scorer == nil {
		scorer = sentiment.NewLexicon()
	}
	if sampler == nil {
		sampler = NewSampler(nil)
	}

	trusted := make(map[string]struct{}, len(opts.TrustedSources))
	for _, s := range opts.TrustedSources {
		trusted[s] = struct{}{}
	}

	return &Pipeline{
		opts:       opts,
		classifier: classifier,
		mentions:   mentions,
		scorer:     scorer,
		sampler:    sampler,
		trusted:    trusted,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		log:        logger,
	}, nil
}

// NewSeeded is New with a sampler seeded for reproducible runs.
func NewSeeded(opts Options, scorer sentiment.Scorer, seed uint64, logger *log.Logger) (*Pipeline, error) {
	return New(opts, scorer, NewSeededSampler(seed), logger)
}

// Options returns the effective configuration.
func (p *Pipeline) Options() Options { return p.opts }

// IsTrustedSource reports whether source is on the trusted list. The match is
// exact.
func (p *Pipeline) IsTrustedSource(source string) bool {
	_, ok := p.trusted[source]
	return ok
}

// EnrichAndDetect runs the full pipeline over raw and returns the enriched
// batch. Any article missing its headline or ticker fails the whole call with
// ErrMalformedArticle before any work is done. External lookup failures never
// fail a run: prices become absences and sentiment becomes neutral.
func (p *Pipeline) EnrichAndDetect(ctx context.Context, raw []models.RawArticle, tc TickerContext) ([]models.Article, models.BatchStats, error) {
	if err := p.Validate(raw); err != nil {
		return nil, models.BatchStats{}, err
	}
	if tc.Cache == nil {
		tc.Cache = NewPriceCache()
	}

	unique := Deduplicate(raw)
	sampled := p.sampler.Sample(unique, p.opts.SampleSize)
	p.log.Debug().Int("raw", len(raw)).Int("unique", len(unique)).Int("sampled", len(sampled)).Msg("batch prepared")

	articles := make([]models.Article, len(sampled))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)
	for i, a := range sampled {
		g.Go(func() error {
			articles[i] = p.enrich(gctx, a, tc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, models.BatchStats{}, err
	}
	if err := ctx.Err(); err != nil {
		return nil, models.BatchStats{}, fmt.Errorf("enrich: %w", err)
	}

	stats := DetectAnomalies(articles, p.opts.DeviationThreshold)
	p.log.Info().
		Int("articles", stats.Count).
		Float64("mean", stats.Mean).
		Float64("std_dev", stats.StdDev).
		Float64("lower", stats.Lower).
		Float64("upper", stats.Upper).
		Int("anomalies", stats.Anomalies).
		Msg("anomaly detection")
	return articles, stats, nil
}

// Validate checks every raw article for required fields.
func (p *Pipeline) Validate(raw []models.RawArticle) error {
	for i := range raw {
		if err := p.validate.Struct(raw[i]); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) {
				fields := make([]string, 0, len(verrs))
				for _, fe := range verrs {
					fields = append(fields, fe.Field())
				}
				return fmt.Errorf("%w: article %d missing %s", ErrMalformedArticle, i, strings.Join(fields, ", "))
			}
			return fmt.Errorf("%w: article %d: %v", ErrMalformedArticle, i, err)
		}
	}
	return nil
}

func (p *Pipeline) enrich(ctx context.Context, a models.RawArticle, tc TickerContext) models.Article {
	text := SearchText(a)
	return models.Article{
		RawArticle:      a,
		EventType:       p.classifier.ClassifyText(text),
		MentionedStocks: p.mentions.Extract(ctx, a, tc.Cache, tc.Fetch),
		Sentiment:       p.scorer.Score(ctx, text),
		IsTrustedSource: p.IsTrustedSource(a.Source),
	}
}
