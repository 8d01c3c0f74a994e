package models

import "time"

// DefaultEventType is the category assigned when no keyword pattern matches.
const DefaultEventType = "General News"

// RawArticle is a company news item as delivered by a news provider,
// tagged with the ticker it was fetched for.
type RawArticle struct {
	ID          int64     `json:"id,omitempty"`
	Ticker      string    `json:"ticker"   validate:"required"`
	Headline    string    `json:"headline" validate:"required"`
	Summary     string    `json:"summary"`
	Source      string    `json:"source"`
	URL         string    `json:"url,omitempty"`
	Image       string    `json:"image,omitempty"`
	Category    string    `json:"category,omitempty"`
	Related     string    `json:"related,omitempty"`
	PublishedAt time.Time `json:"published_at"`

	// TickerPrice is the primary ticker's last price, nil when the quote failed.
	TickerPrice *float64 `json:"ticker_price"`
}

// Mention is another tracked ticker named in a headline, with its live price.
type Mention struct {
	Ticker string  `json:"ticker"`
	Price  float64 `json:"price"`
}

// Sentiment is a {positive, negative, neutral} probability triple.
type Sentiment struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
}

// NeutralSentiment is returned by scorers that could not produce a score.
func NeutralSentiment() Sentiment {
	return Sentiment{Positive: 0, Negative: 0, Neutral: 1}
}

// Article is a RawArticle after enrichment and anomaly detection.
type Article struct {
	RawArticle

	EventType       string    `json:"event_type"`
	MentionedStocks []Mention `json:"mentioned_stocks"`
	Sentiment       Sentiment `json:"sentiment"`
	IsTrustedSource bool      `json:"is_trusted_source"`
	PolarityScore   float64   `json:"polarity_score"`
	IsAnomaly       bool      `json:"is_anomaly"`
}

// BatchStats describes the polarity distribution of one enriched batch.
type BatchStats struct {
	Count     int     `json:"count"`
	Mean      float64 `json:"mean"`
	StdDev    float64 `json:"std_dev"`
	Threshold float64 `json:"threshold"`
	Lower     float64 `json:"lower"`
	Upper     float64 `json:"upper"`
	Anomalies int     `json:"anomalies"`
}

// RunResult is the output of one pipeline invocation.
type RunResult struct {
	RunID     string     `json:"run_id"`
	Group     string     `json:"group"`
	Tickers   []string   `json:"tickers"`
	Articles  []Article  `json:"articles"`
	Stats     BatchStats `json:"stats"`
	FetchedAt time.Time  `json:"fetched_at"`
}

// Anomalies returns the articles flagged as anomalous.
func (r *RunResult) Anomalies() []Article {
	var out []Article
	for _, a := range r.Articles {
		if a.IsAnomaly {
			out = append(out, a)
		}
	}
	return out
}
