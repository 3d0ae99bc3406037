// Package server exposes the interview session over a JSON HTTP API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rehearse-dev/rehearse/internal/completion"
	"github.com/rehearse-dev/rehearse/internal/credential"
	"github.com/rehearse-dev/rehearse/internal/history"
	"github.com/rehearse-dev/rehearse/internal/interview"
	"github.com/rehearse-dev/rehearse/internal/kv"
)

// Validator probes a credential.
type Validator interface {
	Validate(ctx context.Context, key string) completion.Validation
}

// Deps are the collaborators the API serves.
type Deps struct {
	Session    *interview.Orchestrator
	Store      kv.Store
	Resolver   *credential.Resolver
	Validator  Validator
	History    *history.Store
	Gatherer   prometheus.Gatherer
	Logger     *zap.Logger
	ReportsDir string
}

// Server holds the handlers.
type Server struct {
	Deps
}

// New builds a Server.
func New(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Server{Deps: d}
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(s.Logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/session", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Post("/start", s.start)
			r.Post("/question", s.question)
			r.Post("/answer", s.answer)
			r.Post("/code", s.code)
			r.Post("/stop", s.stop)
			r.Post("/report", s.report)
			r.Post("/reset", s.reset)
		})

		r.Route("/config", func(r chi.Router) {
			r.Get("/", s.getConfig)
			r.Put("/", s.putConfig)
		})

		r.Get("/history", s.listHistory)

		r.Route("/credential", func(r chi.Router) {
			r.Get("/", s.credentialStatus)
			r.Put("/", s.setCredential)
			r.Delete("/", s.clearCredential)
			r.Post("/validate", s.validateCredential)
		})
	})

	return r
}

// requestLogger logs one line per request at debug level.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", chimiddleware.GetReqID(r.Context())),
			)
		})
	}
}
