// Package config handles configuration loading for newspulse.
// It supports YAML config files with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/seenimoa/newspulse/internal/datasource"
	"github.com/seenimoa/newspulse/internal/pipeline"
	"github.com/seenimoa/newspulse/internal/sentiment"
)

// Sentiment providers.
const (
	SentimentLexicon = "lexicon"
	SentimentModel   = "model"
)

// News providers.
const (
	NewsFinnhub = "finnhub"
	NewsRSS     = "rss"
)

// Config represents the complete application configuration.
type Config struct {
	News      NewsConfig      `mapstructure:"news"      yaml:"news"`
	Finnhub   FinnhubConfig   `mapstructure:"finnhub"   yaml:"finnhub"`
	Sentiment SentimentConfig `mapstructure:"sentiment" yaml:"sentiment"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"  yaml:"pipeline"`
	API       APIConfig       `mapstructure:"api"       yaml:"api"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
}

// NewsConfig selects the news provider.
type NewsConfig struct {
	Provider    string            `mapstructure:"provider"      yaml:"provider"` // "finnhub" or "rss"
	Feeds       []datasource.Feed `mapstructure:"feeds"         yaml:"feeds"`
	CacheTTLSec int               `mapstructure:"cache_ttl_sec" yaml:"cache_ttl_sec"`
}

// FinnhubConfig holds Finnhub REST API settings.
type FinnhubConfig struct {
	APIKey            string `mapstructure:"api_key"             yaml:"api_key" json:"-"`
	BaseURL           string `mapstructure:"base_url"            yaml:"base_url"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	TimeoutSec        int    `mapstructure:"timeout_sec"         yaml:"timeout_sec"`
}

// SentimentConfig selects and configures the sentiment scorer.
type SentimentConfig struct {
	Provider   string `mapstructure:"provider"    yaml:"provider"` // "lexicon" or "model"
	ModelURL   string `mapstructure:"model_url"   yaml:"model_url"`
	APIKey     string `mapstructure:"api_key"     yaml:"api_key" json:"-"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// PipelineConfig holds the enrichment pipeline settings. Empty table-valued
// settings fall back to the built-in tables.
type PipelineConfig struct {
	SampleSize         int                      `mapstructure:"sample_size"         yaml:"sample_size"`
	DeviationThreshold float64                  `mapstructure:"deviation_threshold" yaml:"deviation_threshold"`
	LookbackDays       int                      `mapstructure:"lookback_days"       yaml:"lookback_days"`
	Concurrency        int                      `mapstructure:"concurrency"         yaml:"concurrency"`
	TrustedSources     []string                 `mapstructure:"trusted_sources"     yaml:"trusted_sources"`
	TrackedGroups      map[string][]string      `mapstructure:"tracked_groups"      yaml:"tracked_groups"`
	EventCategories    []pipeline.EventCategory `mapstructure:"event_categories"    yaml:"event_categories"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.newspulse/config.yaml (home directory)
//  3. /etc/newspulse/config.yaml (system)
//
// Environment variables override config file values.
// Format: NEWSPULSE_<SECTION>_<KEY>, e.g., NEWSPULSE_FINNHUB_API_KEY
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".newspulse"))
	v.AddConfigPath("/etc/newspulse")

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("NEWSPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("news.provider", NewsFinnhub)
	v.SetDefault("news.cache_ttl_sec", 300)

	v.SetDefault("finnhub.base_url", datasource.DefaultFinnhubURL)
	v.SetDefault("finnhub.requests_per_minute", 60) // free tier quota
	v.SetDefault("finnhub.timeout_sec", 15)

	v.SetDefault("sentiment.provider", SentimentLexicon)
	v.SetDefault("sentiment.model_url", sentiment.DefaultModelURL)
	v.SetDefault("sentiment.timeout_sec", 20)

	v.SetDefault("pipeline.sample_size", pipeline.DefaultSampleSize)
	v.SetDefault("pipeline.deviation_threshold", pipeline.DefaultDeviationThreshold)
	v.SetDefault("pipeline.lookback_days", 30)
	v.SetDefault("pipeline.concurrency", pipeline.DefaultConcurrency)

	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 5000)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("NEWSPULSE_FINNHUB_API_KEY"); key != "" {
		cfg.Finnhub.APIKey = key
	}
	if key := os.Getenv("NEWSPULSE_SENTIMENT_API_KEY"); key != "" {
		cfg.Sentiment.APIKey = key
	}
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Pipeline.SampleSize <= 0 {
		errs = append(errs, fmt.Errorf("pipeline.sample_size must be positive, got %d", c.Pipeline.SampleSize))
	}
	if c.Pipeline.DeviationThreshold <= 0 {
		errs = append(errs, fmt.Errorf("pipeline.deviation_threshold must be positive, got %g", c.Pipeline.DeviationThreshold))
	}
	if c.Pipeline.LookbackDays <= 0 {
		errs = append(errs, fmt.Errorf("pipeline.lookback_days must be positive, got %d", c.Pipeline.LookbackDays))
	}
	switch c.Sentiment.Provider {
	case SentimentLexicon, SentimentModel:
	default:
		errs = append(errs, fmt.Errorf("sentiment.provider: unknown provider %q", c.Sentiment.Provider))
	}
	switch c.News.Provider {
	case NewsFinnhub, NewsRSS:
	default:
		errs = append(errs, fmt.Errorf("news.provider: unknown provider %q", c.News.Provider))
	}
	for i, cat := range c.Pipeline.EventCategories {
		if strings.TrimSpace(cat.Name) == "" {
			errs = append(errs, fmt.Errorf("pipeline.event_categories[%d]: name is required", i))
		}
	}
	if c.API.Port < 0 || c.API.Port > 65535 {
		errs = append(errs, fmt.Errorf("api.port out of range: %d", c.API.Port))
	}
	return errors.Join(errs...)
}

// Groups returns the configured ticker groups, or nil to use the built-in ones.
func (c *Config) Groups() map[string][]string {
	if len(c.Pipeline.TrackedGroups) == 0 {
		return nil
	}
	return c.Pipeline.TrackedGroups
}

// PipelineOptions converts the pipeline section into pipeline.Options. tracked
// is the union of the ticker groups in use.
func (c *Config) PipelineOptions(tracked pipeline.TickerSet) pipeline.Options {
	opts := pipeline.Options{
		SampleSize:         c.Pipeline.SampleSize,
		DeviationThreshold: c.Pipeline.DeviationThreshold,
		Concurrency:        c.Pipeline.Concurrency,
		Tracked:            tracked,
	}
	if len(c.Pipeline.TrustedSources) > 0 {
		opts.TrustedSources = c.Pipeline.TrustedSources
	}
	if len(c.Pipeline.EventCategories) > 0 {
		opts.Categories = pipeline.CategoryTable(c.Pipeline.EventCategories)
	}
	return opts
}

// FinnhubOptions converts the finnhub section into datasource.FinnhubOptions.
func (c *Config) FinnhubOptions() datasource.FinnhubOptions {
	return datasource.FinnhubOptions{
		APIKey:            c.Finnhub.APIKey,
		BaseURL:           c.Finnhub.BaseURL,
		RequestsPerMinute: c.Finnhub.RequestsPerMinute,
		Timeout:           seconds(c.Finnhub.TimeoutSec),
		NewsCacheTTL:      seconds(c.News.CacheTTLSec),
	}
}

// SentimentTimeout returns the model client timeout.
func (c *Config) SentimentTimeout() time.Duration {
	return seconds(c.Sentiment.TimeoutSec)
}

// Addr returns the API listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.API.Host, c.API.Port)
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
