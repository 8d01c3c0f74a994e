package main

import (
	"fmt"

	"github.com/phuslu/log"

	"github.com/seenimoa/newspulse/internal/config"
	"github.com/seenimoa/newspulse/internal/datasource"
	"github.com/seenimoa/newspulse/internal/newsfeed"
	"github.com/seenimoa/newspulse/internal/pipeline"
	"github.com/seenimoa/newspulse/internal/sentiment"
)

// groupsFromConfig returns the configured ticker groups or the built-in ones.
func groupsFromConfig(cfg *config.Config) newsfeed.Groups {
	if g := cfg.Groups(); g != nil {
		return newsfeed.Groups(g)
	}
	return newsfeed.DefaultGroups()
}

// buildSources picks the news and price providers. Finnhub serves both when
// selected; with RSS news, quotes still come from Finnhub if a key is set,
// otherwise mentions and primary prices stay empty.
func buildSources(cfg *config.Config) (datasource.NewsSource, datasource.PriceSource, error) {
	var finnhub *datasource.Finnhub
	if cfg.Finnhub.APIKey != "" {
		finnhub = datasource.NewFinnhub(cfg.FinnhubOptions())
	}

	switch cfg.News.Provider {
	case config.NewsFinnhub:
		if finnhub == nil {
			return nil, nil, fmt.Errorf("news provider %q: %w (set NEWSPULSE_FINNHUB_API_KEY)", config.NewsFinnhub, datasource.ErrMissingAPIKey)
		}
		return finnhub, finnhub, nil
	case config.NewsRSS:
		rss := datasource.NewRSSNews(cfg.News.Feeds)
		if finnhub == nil {
			return rss, nil, nil
		}
		return rss, finnhub, nil
	default:
		return nil, nil, fmt.Errorf("unknown news provider %q", cfg.News.Provider)
	}
}

// buildScorer picks the sentiment scorer.
func buildScorer(cfg *config.Config, logger *log.Logger) sentiment.Scorer {
	if cfg.Sentiment.Provider == config.SentimentModel {
		return sentiment.NewModelClient(cfg.Sentiment.ModelURL, cfg.Sentiment.APIKey, cfg.SentimentTimeout(), logger)
	}
	return sentiment.NewLexicon()
}

// buildService wires the providers, scorer and pipeline into a newsfeed
// service. A non-zero seed makes sampling reproducible.
func buildService(cfg *config.Config, logger *log.Logger, seed uint64) (*newsfeed.Service, error) {
	news, prices, err := buildSources(cfg)
	if err != nil {
		return nil, err
	}
	groups := groupsFromConfig(cfg)
	opts := cfg.PipelineOptions(groups.Tracked())
	scorer := buildScorer(cfg, logger)

	var p *pipeline.Pipeline
	if seed != 0 {
		p, err = pipeline.NewSeeded(opts, scorer, seed, logger)
	} else {
		p, err = pipeline.New(opts, scorer, nil, logger)
	}
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}

	return newsfeed.New(newsfeed.Deps{
		News:         news,
		Prices:       prices,
		Pipeline:     p,
		Groups:       groups,
		LookbackDays: cfg.Pipeline.LookbackDays,
		Logger:       logger,
	})
}
