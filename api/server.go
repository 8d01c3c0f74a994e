// Package api provides the HTTP API server for newspulse.
//
// It exposes the enriched news feed per ticker group and per ticker, the
// configured groups, configuration status, and a WebSocket stream of
// anomalies from every completed run.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/phuslu/log"

	"github.com/seenimoa/newspulse/internal/config"
	"github.com/seenimoa/newspulse/internal/logging"
	"github.com/seenimoa/newspulse/internal/newsfeed"
	"github.com/seenimoa/newspulse/pkg/models"
	"github.com/seenimoa/newspulse/pkg/utils"
)

// Version is reported by /health. It is set by the CLI at startup.
var Version = "dev"

// Runner runs the enrichment pipeline for a group or a single ticker.
type Runner interface {
	RunGroup(ctx context.Context, group string) (*models.RunResult, error)
	RunTicker(ctx context.Context, ticker string) (*models.RunResult, error)
	Groups() newsfeed.Groups
}

// resultNotifier is implemented by runners that publish completed runs.
type resultNotifier interface {
	OnResult(fn func(models.RunResult))
}

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	cfg    *config.Config
	runner Runner
	wsHub  *WSHub
	log    *log.Logger
}

// NewServer creates a configured API server with all routes and middleware.
// When runner publishes its results, anomalies are broadcast to WebSocket
// clients.
func NewServer(cfg *config.Config, runner Runner, logger *log.Logger) *Server {
	srv := &Server{
		cfg:    cfg,
		runner: runner,
		wsHub:  NewWSHub(),
		log:    logging.OrNop(logger),
	}
	if n, ok := runner.(resultNotifier); ok {
		n.OnResult(srv.PublishResult)
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server and shuts it down gracefully on
// SIGINT/SIGTERM or when ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go s.wsHub.Run(hubCtx)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("http server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	s.log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	origins := []string{"*"}
	if s.cfg != nil && len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	// Dashboard route: bare article array, {"error": ...} on failure.
	r.Get("/api/news/category/{name}", s.handleLegacyCategory)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Get("/categories", s.handleCategories)
		r.Get("/news/category/{name}", s.handleCategory)
		r.Get("/news/ticker/{ticker}", s.handleTicker)

		r.Get("/config", s.handleGetConfig)
		r.Get("/config/keys", s.handleGetConfigKeys)

		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// requestLogger logs one line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.log.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("took", time.Since(start)).
				Msg("http request")
		}()
		next.ServeHTTP(ww, r)
	})
}

// ============================================================
// Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// CategoryInfo describes one ticker group.
type CategoryInfo struct {
	Name    string   `json:"name"`
	Tickers []string `json:"tickers"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":        "ok",
			"version":       Version,
			"market_status": utils.MarketStatus(),
			"time":          time.Now().UTC().Format(time.RFC3339),
			"ws_clients":    s.wsHub.ClientCount(),
		},
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	groups := s.runner.Groups()
	out := make([]CategoryInfo, 0, len(groups))
	for _, name := range groups.Names() {
		out = append(out, CategoryInfo{Name: name, Tickers: groups[name]})
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: out})
}

func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")
	res, err := s.runner.RunGroup(r.Context(), name)
	if err != nil {
		s.log.Error().Str("category", name).Err(err).Msg("category run failed")
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: res})
}

func (s *Server) handleTicker(w http.ResponseWriter, r *http.Request) {
	ticker := pathParam(r, "ticker")
	res, err := s.runner.RunTicker(r.Context(), ticker)
	if err != nil {
		s.log.Error().Str("ticker", ticker).Err(err).Msg("ticker run failed")
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: res})
}

func (s *Server) handleLegacyCategory(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")
	res, err := s.runner.RunGroup(r.Context(), name)
	if err != nil {
		status := statusFor(err)
		msg := err.Error()
		if status == http.StatusNotFound {
			msg = "Category not found"
		}
		s.log.Error().Str("category", name).Err(err).Msg("category run failed")
		writeJSON(w, status, map[string]string{"error": msg})
		return
	}
	writeJSON(w, http.StatusOK, res.Articles)
}

// ============================================================
// Helpers
// ============================================================

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, newsfeed.ErrUnknownGroup):
		return http.StatusNotFound
	case errors.Is(err, newsfeed.ErrEmptyTicker):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// pathParam returns the decoded URL parameter; group names may contain
// spaces and ampersands.
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
