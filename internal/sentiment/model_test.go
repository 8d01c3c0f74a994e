package sentiment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/newspulse/pkg/models"
)

func TestModelClientNestedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "big tech stocks soar", body["inputs"])

		_, _ = w.Write([]byte(`[[{"label":"positive","score":0.91234},{"label":"negative","score":0.03},{"label":"neutral","score":0.05766}]]`))
	}))
	defer srv.Close()

	c := NewModelClient(srv.URL, "secret", time.Second, nil)
	got := c.Score(context.Background(), "big tech stocks soar")

	assert.Equal(t, models.Sentiment{Positive: 0.9123, Negative: 0.03, Neutral: 0.0577}, got)
}

func TestModelClientFlatResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"label":"Negative","score":0.5},{"label":"Neutral","score":0.5}]`))
	}))
	defer srv.Close()

	got := NewModelClient(srv.URL, "", time.Second, nil).Score(context.Background(), "regulations could hurt profits")
	assert.Equal(t, models.Sentiment{Negative: 0.5, Neutral: 0.5}, got)
}

func TestModelClientFailuresAreNeutral(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model loading", http.StatusServiceUnavailable)
		}},
		{"garbage body", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"error":"bad"}`))
		}},
		{"unknown labels", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[{"label":"LABEL_0","score":1}]`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			got := NewModelClient(srv.URL, "", time.Second, nil).Score(context.Background(), "some headline")
			assert.Equal(t, models.NeutralSentiment(), got)
		})
	}
}

func TestModelClientEmptyTextSkipsRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	got := NewModelClient(srv.URL, "", time.Second, nil).Score(context.Background(), "   ")
	assert.Equal(t, models.NeutralSentiment(), got)
	assert.Zero(t, calls.Load())
}

func TestModelClientUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	got := NewModelClient(url, "", 200*time.Millisecond, nil).Score(context.Background(), "headline")
	assert.Equal(t, models.NeutralSentiment(), got)
}

func TestModelClientTrimsLongInputOnRuneBoundary(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		got = body["inputs"]
		_, _ = w.Write([]byte(`[{"label":"neutral","score":1}]`))
	}))
	defer srv.Close()

	// "é" is two bytes, so an odd byte limit lands inside a rune.
	text := "a" + strings.Repeat("é", maxInputChars)
	NewModelClient(srv.URL, "", time.Second, nil).Score(context.Background(), text)

	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, maxInputChars-1, len(got))
	assert.True(t, strings.HasPrefix(text, got))
}

func TestCutRunes(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"abcdef", 3, "abc"},
		{"aé", 2, "a"},
		{"日本語", 4, "日"},
		{"日本語", 6, "日本"},
		{"", 0, ""},
	}
	for _, tt := range tests {
		got := cutRunes(tt.in, tt.n)
		assert.Equal(t, tt.want, got, "cutRunes(%q, %d)", tt.in, tt.n)
		assert.True(t, utf8.ValidString(got))
	}
	assert.Equal(t, "日...", truncate("日本語", 4))
}
