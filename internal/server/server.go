// Package server exposes agent sessions over HTTP with a websocket event
// stream, for front ends that are not the terminal.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Cyclone1070/kiro/internal/agent"
	"github.com/Cyclone1070/kiro/internal/approval"
	"github.com/Cyclone1070/kiro/internal/metrics"
	"github.com/Cyclone1070/kiro/internal/provider"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Config for the HTTP handler. Sessions is required.
type Config struct {
	Sessions *agent.Manager
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer // serves /metrics when set
	Logger   zerolog.Logger
}

type server struct {
	sessions *agent.Manager
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	upgrader websocket.Upgrader
}

// New returns the API handler.
func New(cfg Config) http.Handler {
	if cfg.Sessions == nil {
		panic("sessions is required")
	}
	s := &server{
		sessions: cfg.Sessions,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger.With().Str("component", "server").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Local tool; front ends may be served from another port.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.openSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Delete("/", s.closeSession)
			r.Post("/messages", s.sendMessage)
			r.Get("/pending", s.listPending)
			r.Post("/changes/{cid}", s.resolveChange)
			r.Get("/events", s.streamEvents)
		})
	})
	return r
}

// observe records request metrics against the matched route pattern.
func (s *server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.ObserveRequest(r.Method, route, status, time.Since(start))
		s.logger.Debug().
			Str("method", r.Method).
			Str("route", route).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

type apiErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiError struct {
	Error apiErrorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiError{Error: apiErrorBody{Code: code, Message: message}})
}

// writeFailure maps domain errors to statuses.
func writeFailure(w http.ResponseWriter, err error) {
	var unknownChange *approval.UnknownChangeError
	var backendErr *provider.Error
	switch {
	case errors.Is(err, agent.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session_not_found", err.Error())
	case errors.Is(err, agent.ErrSessionExists):
		writeError(w, http.StatusConflict, "session_exists", err.Error())
	case errors.Is(err, agent.ErrAwaitingApproval):
		writeError(w, http.StatusConflict, "awaiting_approval", err.Error())
	case errors.Is(err, agent.ErrSessionClosed):
		writeError(w, http.StatusGone, "session_closed", err.Error())
	case errors.As(err, &unknownChange):
		writeError(w, http.StatusNotFound, "unknown_change", err.Error())
	case errors.As(err, &backendErr):
		status := http.StatusBadGateway
		if backendErr.Code == provider.ErrorCodeTimeout {
			status = http.StatusGatewayTimeout
		}
		writeError(w, status, string(backendErr.Code), err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}
