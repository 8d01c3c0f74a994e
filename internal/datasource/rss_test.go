package datasource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Markets</title>
<item><title>NVDA jumps after earnings</title><link>https://example.com/a</link>
<description>&lt;p&gt;Chip maker &lt;b&gt;beats&lt;/b&gt;&lt;/p&gt;</description>
<pubDate>Mon, 12 Oct 2026 14:00:00 GMT</pubDate></item>
<item><title>Chip stocks slide</title><link>https://example.com/b</link>
<description>NVDA and AMD lower</description>
<pubDate>Tue, 13 Oct 2026 14:00:00 GMT</pubDate></item>
<item><title>NVDA old news</title><link>https://example.com/c</link>
<description>stale</description>
<pubDate>Mon, 01 Jun 2026 14:00:00 GMT</pubDate></item>
<item><title>Oil rallies</title><link>https://example.com/d</link>
<description>XOM higher</description>
<pubDate>Mon, 12 Oct 2026 15:00:00 GMT</pubDate></item>
</channel></rss>`

func TestRSSNewsFiltersByTickerAndWindow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(testFeed))
	}))
	defer srv.Close()

	n := NewRSSNews([]Feed{{Name: "Test Wire", URL: srv.URL}})
	from := time.Date(2026, 9, 19, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

	got, err := n.FetchCompanyNews(context.Background(), "nvda", from, to)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "NVDA jumps after earnings", got[0].Headline)
	assert.Equal(t, "Chip maker beats", got[0].Summary)
	assert.Equal(t, "Test Wire", got[0].Source)
	assert.Equal(t, "NVDA", got[0].Ticker)
	assert.Equal(t, "Chip stocks slide", got[1].Headline, "summary mention counts for feed filtering")
}

func TestRSSNewsAllFeedsFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	n := NewRSSNews([]Feed{{Name: "Broken", URL: srv.URL}})
	_, err := n.FetchCompanyNews(context.Background(), "AAPL", time.Now().AddDate(0, 0, -30), time.Now())
	assert.Error(t, err)
}

func TestRSSNewsPartialFailure(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testFeed))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer bad.Close()

	n := NewRSSNews([]Feed{{Name: "Bad", URL: bad.URL}, {Name: "Good", URL: good.URL}})
	got, err := n.FetchCompanyNews(context.Background(), "XOM",
		time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Oil rallies", got[0].Headline)
}
