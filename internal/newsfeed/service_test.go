package newsfeed

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/newspulse/internal/pipeline"
	"github.com/seenimoa/newspulse/internal/sentiment"
	"github.com/seenimoa/newspulse/pkg/models"
)

type fakeNews struct {
	mu       sync.Mutex
	byTicker map[string][]models.RawArticle
	fail     map[string]error
	windows  []time.Duration
}

func (f *fakeNews) Name() string { return "fake" }

func (f *fakeNews) FetchCompanyNews(_ context.Context, ticker string, from, to time.Time) ([]models.RawArticle, error) {
	f.mu.Lock()
	f.windows = append(f.windows, to.Sub(from))
	f.mu.Unlock()
	if err := f.fail[ticker]; err != nil {
		return nil, err
	}
	src := f.byTicker[ticker]
	out := make([]models.RawArticle, len(src))
	copy(out, src)
	return out, nil
}

type fakePrices struct {
	prices map[string]float64
	calls  sync.Map
	total  atomic.Int32
}

func (f *fakePrices) Quote(_ context.Context, ticker string) (float64, error) {
	f.total.Add(1)
	n, _ := f.calls.LoadOrStore(ticker, new(atomic.Int32))
	n.(*atomic.Int32).Add(1)
	p, ok := f.prices[ticker]
	if !ok {
		return 0, errors.New("no quote")
	}
	return p, nil
}

func (f *fakePrices) callsFor(ticker string) int32 {
	n, ok := f.calls.Load(ticker)
	if !ok {
		return 0
	}
	return n.(*atomic.Int32).Load()
}

func testGroups() Groups {
	return Groups{
		"Tech":    {"AAPL", "MSFT", "GOOGL"},
		"Finance": {"JPM"},
	}
}

func newTestService(t *testing.T, news *fakeNews, prices *fakePrices) *Service {
	t.Helper()
	groups := testGroups()
	p, err := pipeline.NewSeeded(pipeline.Options{Tracked: groups.Tracked()}, sentiment.NewLexicon(), 5, nil)
	require.NoError(t, err)
	svc, err := New(Deps{News: news, Prices: prices, Pipeline: p, Groups: groups})
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestRunGroup(t *testing.T) {
	news := &fakeNews{byTicker: map[string][]models.RawArticle{
		"AAPL": {
			{Headline: "AAPL rises as MSFT falls", Summary: "", Source: "Reuters"},
			{Headline: "Apple to acquire chip startup", Source: "Yahoo"},
		},
		"MSFT": {
			{Headline: "MSFT earnings beat", Source: "CNBC"},
			{Headline: "AAPL rises as MSFT falls", Summary: "msft copy", Source: "Reuters"},
		},
		"GOOGL": {},
	}}
	prices := &fakePrices{prices: map[string]float64{"AAPL": 190, "MSFT": 410}}
	svc := newTestService(t, news, prices)

	var notified []models.RunResult
	svc.OnResult(func(r models.RunResult) { notified = append(notified, r) })

	res, err := svc.RunGroup(context.Background(), "tech")
	require.NoError(t, err)

	assert.Equal(t, "Tech", res.Group)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, []string{"AAPL", "MSFT", "GOOGL"}, res.Tickers)
	assert.Len(t, res.Articles, 3, "duplicate headline collapsed")
	assert.Equal(t, 3, res.Stats.Count)

	for _, a := range res.Articles {
		require.NotNil(t, a.TickerPrice, "primary price for %s", a.Ticker)
		switch a.Ticker {
		case "AAPL":
			assert.Equal(t, 190.0, *a.TickerPrice)
		case "MSFT":
			assert.Equal(t, 410.0, *a.TickerPrice)
		}
	}

	assert.Equal(t, int32(1), prices.callsFor("MSFT"), "primary and mention lookups share the run cache")
	assert.Equal(t, int32(1), prices.callsFor("AAPL"))
	assert.Zero(t, prices.callsFor("GOOGL"), "no news means no primary quote")

	for _, w := range news.windows {
		assert.Equal(t, 30*24*time.Hour, w)
	}
	require.Len(t, notified, 1)
	assert.Equal(t, res.RunID, notified[0].RunID)
}

func TestRunGroupMentionPriceResolvedFromCache(t *testing.T) {
	news := &fakeNews{byTicker: map[string][]models.RawArticle{
		"AAPL": {{Headline: "AAPL and MSFT team up", Source: "Reuters"}},
		"MSFT": {{Headline: "Microsoft cloud grows", Source: "Reuters"}},
	}}
	prices := &fakePrices{prices: map[string]float64{"AAPL": 190, "MSFT": 410}}
	svc := newTestService(t, news, prices)

	res, err := svc.RunGroup(context.Background(), "Tech")
	require.NoError(t, err)

	var found bool
	for _, a := range res.Articles {
		if a.Headline == "AAPL and MSFT team up" {
			found = true
			assert.Equal(t, []models.Mention{{Ticker: "MSFT", Price: 410}}, a.MentionedStocks)
		}
	}
	assert.True(t, found)
	assert.Equal(t, int32(2), prices.total.Load())
}

func TestRunGroupPrimaryPriceFailure(t *testing.T) {
	news := &fakeNews{byTicker: map[string][]models.RawArticle{
		"JPM": {{Headline: "JPMorgan profit climbs", Source: "Reuters"}},
	}}
	svc := newTestService(t, news, &fakePrices{})

	res, err := svc.RunGroup(context.Background(), "Finance")
	require.NoError(t, err)
	require.Len(t, res.Articles, 1)
	assert.Nil(t, res.Articles[0].TickerPrice)
	assert.Equal(t, "Earnings Report", res.Articles[0].EventType)
}

func TestRunGroupUnknown(t *testing.T) {
	svc := newTestService(t, &fakeNews{}, &fakePrices{})
	_, err := svc.RunGroup(context.Background(), "Crypto")
	assert.ErrorIs(t, err, ErrUnknownGroup)
}

func TestRunGroupNewsFailure(t *testing.T) {
	news := &fakeNews{fail: map[string]error{"MSFT": errors.New("rate limited")}}
	svc := newTestService(t, news, &fakePrices{})
	res, err := svc.RunGroup(context.Background(), "Tech")
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), "MSFT")
}

func TestRunGroupEmpty(t *testing.T) {
	svc := newTestService(t, &fakeNews{}, &fakePrices{})
	res, err := svc.RunGroup(context.Background(), "Tech")
	require.NoError(t, err)
	assert.Empty(t, res.Articles)
	assert.Zero(t, res.Stats.Anomalies)
}

func TestRunTicker(t *testing.T) {
	news := &fakeNews{byTicker: map[string][]models.RawArticle{
		"NFLX": {{Headline: "Netflix to launch ad tier", Source: "CNBC"}},
	}}
	svc := newTestService(t, news, &fakePrices{prices: map[string]float64{"NFLX": 700}})

	res, err := svc.RunTicker(context.Background(), " nflx ")
	require.NoError(t, err)
	assert.Equal(t, "NFLX", res.Group)
	require.Len(t, res.Articles, 1)
	assert.Equal(t, "NFLX", res.Articles[0].Ticker)
	assert.Equal(t, "Product Launch", res.Articles[0].EventType)

	_, err = svc.RunTicker(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptyTicker)
}

func TestGroups(t *testing.T) {
	g := DefaultGroups()
	assert.Equal(t, []string{"Automobile", "Finance", "Oil & Gas", "Tech"}, g.Names())
	assert.True(t, g.Tracked().Contains("NVDA"))
	assert.True(t, g.Tracked().Contains("PYPL"))

	name, tickers, ok := g.Lookup("oil & gas")
	assert.True(t, ok)
	assert.Equal(t, "Oil & Gas", name)
	assert.Contains(t, tickers, "XOM")
}

func TestNewRequiresDeps(t *testing.T) {
	_, err := New(Deps{})
	assert.Error(t, err)
}

func TestRunGroupDropsBlankHeadlines(t *testing.T) {
	news := &fakeNews{byTicker: map[string][]models.RawArticle{
		"AAPL": {
			{Headline: "Apple to acquire startup", Source: "Reuters"},
			{Headline: "", Summary: "AAPL note", Source: "Yahoo"},
			{Headline: "   ", Source: "Yahoo"},
		},
		"MSFT": {
			{Headline: "Microsoft quarter steady", Source: "CNBC"},
		},
		"GOOGL": {
			{Headline: "", Summary: "GOOGL blurb"},
		},
	}}
	prices := &fakePrices{prices: map[string]float64{"AAPL": 190, "MSFT": 410, "GOOGL": 170}}
	svc := newTestService(t, news, prices)

	res, err := svc.RunGroup(context.Background(), "Tech")
	require.NoError(t, err)
	require.Len(t, res.Articles, 2)
	for _, a := range res.Articles {
		assert.NotEmpty(t, a.Headline)
	}
	assert.Zero(t, prices.callsFor("GOOGL"), "no quote for a ticker whose items were all dropped")
}

func TestPipelineStillRejectsBlankHeadline(t *testing.T) {
	p, err := pipeline.New(pipeline.Options{}, sentiment.NewLexicon(), nil, nil)
	require.NoError(t, err)
	_, _, err = p.EnrichAndDetect(context.Background(), []models.RawArticle{{Ticker: "AAPL"}}, pipeline.TickerContext{})
	assert.ErrorIs(t, err, pipeline.ErrMalformedArticle)
}
