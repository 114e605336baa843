// Package api exposes the catalog engine's administrative HTTP surface.
package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"graphmeta/internal/domain"
	"graphmeta/internal/middleware"
)

// maxQueryBody bounds admin query payload size.
const maxQueryBody = 1 << 20 // 1 MiB

// AdminExecutor executes a raw admin query payload.
type AdminExecutor interface {
	Execute(ctx context.Context, rawPayload []byte) ([]byte, error)
}

// VersionProber reads the recorded catalog version.
type VersionProber interface {
	CurrentVersion(ctx context.Context) (domain.VersionRecord, error)
}

// Handler serves the admin API.
type Handler struct {
	exec   AdminExecutor
	probe  VersionProber
	logger *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(exec AdminExecutor, probe VersionProber, logger *slog.Logger) *Handler {
	return &Handler{exec: exec, probe: probe, logger: logger}
}

// RouterConfig holds the middleware knobs the router needs.
type RouterConfig struct {
	RateLimitRPS       float64
	RateLimitBurst     int
	CORSAllowedOrigins []string
}

// Routes assembles the admin API router.
func (h *Handler) Routes(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
	}))

	r.Get("/healthz", h.health)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/query", h.executeQuery)
		r.Get("/version", h.version)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// executeQuery runs one admin query payload through the executor. The body is
// handed to the executor verbatim — decode (and decode rejection) is the
// executor's job, not the transport's.
func (h *Handler) executeQuery(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxQueryBody))
	if err != nil {
		h.writeError(r, w, domain.ErrValidation("cannot read request body: %v", err))
		return
	}

	result, err := h.exec.Execute(r.Context(), body)
	if err != nil {
		h.writeError(r, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result)
}

func (h *Handler) version(w http.ResponseWriter, r *http.Request) {
	rec, err := h.probe.CurrentVersion(r.Context())
	if err != nil {
		h.writeError(r, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"version":     string(rec.Version),
		"upgraded_on": rec.UpgradedOn,
	})
}

func (h *Handler) writeError(r *http.Request, w http.ResponseWriter, err error) {
	status := httpStatusFromError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("admin API request failed",
			"request_id", middleware.GetRequestID(r.Context()),
			"path", r.URL.Path,
			"error", err)
	}
	writeJSON(w, status, map[string]any{
		"code":    status,
		"message": err.Error(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
