// Package api exposes the engine's HTTP surface: health, the current
// caption for poll-based renderers, a live SSE caption stream, stream
// stats, a PCM ingest endpoint, and prometheus metrics.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/snarg/caption-engine/internal/caption"
	"github.com/snarg/caption-engine/internal/config"
	"github.com/snarg/caption-engine/internal/metrics"
	"github.com/snarg/caption-engine/internal/stream"
)

type Server struct {
	http *http.Server
	log  zerolog.Logger
}

func NewServer(cfg *config.Config, mgr *stream.Manager, gate *caption.Gate, bus *caption.Bus, health *HealthHandler, log zerolog.Logger) *Server {
	r := chi.NewRouter()

	// Global middleware
	r.Use(RequestID)
	r.Use(Recoverer)
	r.Use(Logger(log))
	r.Use(metrics.InstrumentHandler)
	r.Use(CORS)

	// Health and metrics, no auth
	r.Get("/api/v1/health", health.ServeHTTP)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(cfg.AuthToken))

		captions := NewCaptionHandler(gate, cfg.DisplayFor)
		r.Get("/api/v1/caption", captions.Current)

		events := NewEventsHandler(bus)
		r.Get("/api/v1/events/stream", events.StreamEvents)

		streams := NewStreamsHandler(mgr)
		r.Get("/api/v1/streams", streams.List)
		r.Post("/api/v1/streams/{id}/ingest", streams.Ingest)
	})

	return &Server{
		http: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      r,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		log: log,
	}
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server starting")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.http.Shutdown(ctx)
}
