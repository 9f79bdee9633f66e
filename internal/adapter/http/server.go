package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/dam-levels-etl/internal/pipeline"
)

const indexText = "Dam Levels Scraper is running. Use /webhook endpoint."

// Runner executes one scrape run.
type Runner interface {
	Run(ctx context.Context) (pipeline.Summary, error)
}

// WebhookResponse is the body returned by POST /webhook. Status is only ever
// "success" or "error"; the remaining fields are informational and a run that
// skipped some regions still reports success.
type WebhookResponse struct {
	Status  string                   `json:"status"`
	Message string                   `json:"message"`
	RunID   string                   `json:"run_id,omitempty"`
	File    string                   `json:"file,omitempty"`
	Regions []string                 `json:"regions,omitempty"`
	Failed  []pipeline.RegionFailure `json:"failed,omitempty"`
}

// Server exposes the webhook trigger plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	runner     Runner
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /, /webhook, /healthz, /readyz, and
// /metrics routes. writeTimeout bounds a whole webhook request, so it must
// cover a full scrape run.
func NewServer(addr string, writeTimeout time.Duration, runner Runner, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: writeTimeout,
			IdleTimeout:  60 * time.Second,
		},
		runner: runner,
		logger: logger,
	}

	mux.HandleFunc("GET /{$}", handleIndex)
	mux.HandleFunc("POST /webhook", s.handleWebhook)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, indexText) //nolint:errcheck // best-effort static response
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("webhook received", "remote", r.RemoteAddr)

	// A client hanging up must not abort a run that is halfway through writing.
	summary, err := s.run(context.WithoutCancel(r.Context()))
	if err != nil {
		sharedobs.WriteJSON(w, http.StatusInternalServerError, WebhookResponse{
			Status:  "error",
			Message: err.Error(),
		})
		return
	}

	sharedobs.WriteJSON(w, http.StatusOK, WebhookResponse{
		Status:  "success",
		Message: "Dam levels scraped successfully",
		RunID:   summary.RunID,
		File:    summary.Path,
		Regions: summary.Regions,
		Failed:  summary.Failed,
	})
}

// run converts a panic inside the pipeline into an error response.
func (s *Server) run(ctx context.Context) (summary pipeline.Summary, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("error in webhook", "panic", rec)
			err = fmt.Errorf("run panicked: %v", rec)
		}
	}()
	return s.runner.Run(ctx)
}
