package datasource

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/seenimoa/newspulse/pkg/models"
	"github.com/seenimoa/newspulse/pkg/utils"
)

// Feed is an RSS or Atom feed of market news.
type Feed struct {
	Name string `mapstructure:"name" yaml:"name"`
	URL  string `mapstructure:"url"  yaml:"url"`
}

// DefaultFeeds lists the market news feeds used when Finnhub is not configured.
var DefaultFeeds = []Feed{
	{Name: "MarketWatch", URL: "https://feeds.content.dowjones.io/public/rss/mw_topstories"},
	{Name: "CNBC", URL: "https://search.cnbc.com/rs/search/combinedcms/view.xml?partnerId=wrss01&id=10001147"},
	{Name: "Yahoo Finance", URL: "https://finance.yahoo.com/news/rssindex"},
}

// RSSNews implements NewsSource by reading feeds and keeping the items that
// name the ticker.
type RSSNews struct {
	feeds  []Feed
	parser *gofeed.Parser
	cache  *Cache[[]*gofeed.Item]
}

var _ NewsSource = (*RSSNews)(nil)

// NewRSSNews creates a feed reader. Nil feeds means DefaultFeeds.
func NewRSSNews(feeds []Feed) *RSSNews {
	if len(feeds) == 0 {
		feeds = DefaultFeeds
	}
	p := gofeed.NewParser()
	p.UserAgent = DefaultUserAgent
	return &RSSNews{
		feeds:  feeds,
		parser: p,
		cache:  NewCache[[]*gofeed.Item](10 * time.Minute),
	}
}

// Name returns the data source name.
func (n *RSSNews) Name() string { return "RSS" }

// FetchCompanyNews returns feed items published in [from, to] whose title or
// description names ticker as a whole word. Items without a publish date are
// kept. A feed that fails to load is skipped; the call fails only when every
// feed fails.
func (n *RSSNews) FetchCompanyNews(ctx context.Context, ticker string, from, to time.Time) ([]models.RawArticle, error) {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(symbol) + `\b`)
	if err != nil {
		return nil, fmt.Errorf("ticker pattern %q: %w", symbol, err)
	}

	var (
		articles []models.RawArticle
		failures []string
	)
	for _, feed := range n.feeds {
		items, err := n.items(ctx, feed)
		if err != nil {
			failures = append(failures, err.Error())
			continue
		}
		for _, item := range items {
			summary := cleanHTML(item.Description)
			if !re.MatchString(item.Title) && !re.MatchString(summary) {
				continue
			}
			a := models.RawArticle{
				Ticker:   symbol,
				Headline: strings.TrimSpace(item.Title),
				Summary:  summary,
				Source:   feed.Name,
				URL:      item.Link,
			}
			if item.PublishedParsed != nil {
				a.PublishedAt = item.PublishedParsed.UTC()
				if a.PublishedAt.Before(utils.StartOfDay(from)) || a.PublishedAt.After(utils.EndOfDay(to)) {
					continue
				}
			}
			if item.Image != nil {
				a.Image = item.Image.URL
			}
			articles = append(articles, a)
		}
	}

	if len(failures) == len(n.feeds) && len(n.feeds) > 0 {
		return nil, fmt.Errorf("all feeds failed: %s", strings.Join(failures, "; "))
	}
	return articles, nil
}

func (n *RSSNews) items(ctx context.Context, feed Feed) ([]*gofeed.Item, error) {
	if cached, ok := n.cache.Get(feed.URL); ok {
		return cached, nil
	}
	parsed, err := n.parser.ParseURLWithContext(feed.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse RSS %s: %w", feed.Name, err)
	}
	n.cache.Set(feed.URL, parsed.Items)
	return parsed.Items, nil
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
