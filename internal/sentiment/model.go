package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/phuslu/log"

	"github.com/seenimoa/newspulse/internal/logging"
	"github.com/seenimoa/newspulse/pkg/models"
)

// DefaultModelURL is the hosted FinBERT inference endpoint.
const DefaultModelURL = "https://api-inference.huggingface.co/models/ProsusAI/finbert"

// maxInputChars keeps requests within the model's 512-token window.
const maxInputChars = 2000

// ModelClient scores text with a remote FinBERT-style classification model.
// The endpoint receives {"inputs": text} and answers with label/score pairs,
// either flat or nested one level deep.
type ModelClient struct {
	endpoint string
	apiKey   string
	http     *http.Client
	log      *log.Logger
}

var _ Scorer = (*ModelClient)(nil)

// NewModelClient creates a client for endpoint. A zero timeout means 15s.
func NewModelClient(endpoint, apiKey string, timeout time.Duration, logger *log.Logger) *ModelClient {
	if endpoint == "" {
		endpoint = DefaultModelURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ModelClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
		log:      logging.OrNop(logger),
	}
}

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Score returns the model's probabilities, or the neutral triple when the text
// is empty or the request fails.
func (c *ModelClient) Score(ctx context.Context, text string) models.Sentiment {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.NeutralSentiment()
	}
	text = cutRunes(text, maxInputChars)

	s, err := c.classify(ctx, text)
	if err != nil {
		c.log.Warn().Err(err).Str("text", truncate(text, 80)).Msg("sentiment model failed, using neutral")
		return models.NeutralSentiment()
	}
	return s
}

func (c *ModelClient) classify(ctx context.Context, text string) (models.Sentiment, error) {
	body, err := json.Marshal(map[string]string{"inputs": text})
	if err != nil {
		return models.Sentiment{}, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return models.Sentiment{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return models.Sentiment{}, fmt.Errorf("POST %s: %w", c.endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return models.Sentiment{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return models.Sentiment{}, fmt.Errorf("model returned %s: %s", resp.Status, truncate(string(raw), 200))
	}

	pairs, err := decodeLabelScores(raw)
	if err != nil {
		return models.Sentiment{}, err
	}

	var pos, neg, neu float64
	var seen int
	for _, p := range pairs {
		switch strings.ToLower(p.Label) {
		case "positive":
			pos = p.Score
		case "negative":
			neg = p.Score
		case "neutral":
			neu = p.Score
		default:
			continue
		}
		seen++
	}
	if seen == 0 {
		return models.Sentiment{}, fmt.Errorf("model response has no sentiment labels")
	}
	return normalize(pos, neg, neu), nil
}

// decodeLabelScores accepts [[{label,score}...]] or [{label,score}...].
func decodeLabelScores(raw []byte) ([]labelScore, error) {
	var nested [][]labelScore
	if err := json.Unmarshal(raw, &nested); err == nil && len(nested) > 0 {
		return nested[0], nil
	}
	var flat []labelScore
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("decode model response: %w", err)
	}
	return flat, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return cutRunes(s, n) + "..."
}

// cutRunes returns at most n bytes of s without splitting a UTF-8 sequence.
func cutRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
