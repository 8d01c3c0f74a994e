package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/seenimoa/newspulse/pkg/models"
	"github.com/seenimoa/newspulse/pkg/utils"
)

// DefaultFinnhubURL is the Finnhub REST API root.
const DefaultFinnhubURL = "https://finnhub.io/api/v1"

// FinnhubOptions configures a Finnhub client.
type FinnhubOptions struct {
	APIKey            string
	BaseURL           string
	RequestsPerMinute int
	Timeout           time.Duration
	NewsCacheTTL      time.Duration
}

// Finnhub fetches company news and quotes from the Finnhub REST API.
type Finnhub struct {
	apiKey  string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	news    *Cache[[]models.RawArticle]
}

var (
	_ NewsSource  = (*Finnhub)(nil)
	_ PriceSource = (*Finnhub)(nil)
)

// NewFinnhub creates a client. Zero options fall back to the free-tier quota
// of 60 requests per minute, a 30s timeout and a 10 minute news cache.
func NewFinnhub(opts FinnhubOptions) *Finnhub {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultFinnhubURL
	}
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = 60
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.NewsCacheTTL <= 0 {
		opts.NewsCacheTTL = 10 * time.Minute
	}
	perReq := time.Minute / time.Duration(opts.RequestsPerMinute)
	return &Finnhub{
		apiKey:  opts.APIKey,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		client:  &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(rate.Every(perReq), max(1, opts.RequestsPerMinute/6)),
		news:    NewCache[[]models.RawArticle](opts.NewsCacheTTL),
	}
}

// Name returns the data source name.
func (f *Finnhub) Name() string { return "Finnhub" }

// --- Finnhub API types ---

type finnhubNewsItem struct {
	Category string `json:"category"`
	Datetime int64  `json:"datetime"`
	Headline string `json:"headline"`
	ID       int64  `json:"id"`
	Image    string `json:"image"`
	Related  string `json:"related"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

type finnhubQuote struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	PercentChange float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PreviousClose float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

// FetchCompanyNews returns the company news for ticker between from and to,
// inclusive by calendar day. Every article is tagged with ticker.
func (f *Finnhub) FetchCompanyNews(ctx context.Context, ticker string, from, to time.Time) ([]models.RawArticle, error) {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("from", utils.FormatDate(from))
	q.Set("to", utils.FormatDate(to))

	cacheKey := "news:" + q.Encode()
	if cached, ok := f.news.Get(cacheKey); ok {
		return cloneArticles(cached), nil
	}

	var items []finnhubNewsItem
	if err := f.get(ctx, "/company-news", q, &items); err != nil {
		return nil, fmt.Errorf("finnhub company news %s: %w", symbol, err)
	}

	articles := make([]models.RawArticle, 0, len(items))
	for _, it := range items {
		a := models.RawArticle{
			ID:       it.ID,
			Ticker:   symbol,
			Headline: it.Headline,
			Summary:  it.Summary,
			Source:   it.Source,
			URL:      it.URL,
			Image:    it.Image,
			Category: it.Category,
			Related:  it.Related,
		}
		if it.Datetime > 0 {
			a.PublishedAt = time.Unix(it.Datetime, 0).UTC()
		}
		articles = append(articles, a)
	}

	f.news.Cleanup()
	f.news.Set(cacheKey, articles)
	return cloneArticles(articles), nil
}

// Quote returns the current price for ticker. Finnhub answers unknown symbols
// with an all-zero quote, which is reported as ErrTickerNotFound.
func (f *Finnhub) Quote(ctx context.Context, ticker string) (float64, error) {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))
	q := url.Values{}
	q.Set("symbol", symbol)

	var quote finnhubQuote
	if err := f.get(ctx, "/quote", q, &quote); err != nil {
		return 0, fmt.Errorf("finnhub quote %s: %w", symbol, err)
	}
	if quote.Current <= 0 {
		return 0, fmt.Errorf("finnhub quote: %w: %s", ErrTickerNotFound, symbol)
	}
	return quote.Current, nil
}

func (f *Finnhub) get(ctx context.Context, path string, q url.Values, v any) error {
	if f.apiKey == "" {
		return ErrMissingAPIKey
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return err
	}
	q.Set("token", f.apiKey)

	body, err := doGet(ctx, f.client, f.baseURL+path+"?"+q.Encode(), map[string]string{
		"Accept": "application/json",
	})
	if err != nil {
		return err
	}
	defer body.Close()

	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// cloneArticles copies a cached slice so callers may mutate their copy.
func cloneArticles(in []models.RawArticle) []models.RawArticle {
	out := make([]models.RawArticle, len(in))
	copy(out, in)
	return out
}
