// Package httpapi exposes the store over HTTP: commands go in by name, the
// state and the active structure come out as JSON.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gtasync/internal/adapters/loader"
	"gtasync/internal/core"
)

const maxPayloadBytes = 1 << 20

// Response is the envelope of every JSON reply.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Option configures a Handler.
type Option func(*Handler)

// WithLoader routes element loads through l so misses are fetched.
func WithLoader(l *loader.Loader) Option {
	return func(h *Handler) { h.loader = l }
}

// WithMetricsHandler mounts h on GET /metrics.
func WithMetricsHandler(m http.Handler) Option {
	return func(h *Handler) { h.metrics = m }
}

// Handler owns the router.
type Handler struct {
	svc     *core.Service
	loader  *loader.Loader
	metrics http.Handler
	logger  *slog.Logger

	Mux *chi.Mux
}

// New builds the router for svc.
func New(svc *core.Service, logger *slog.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := &Handler{svc: svc, logger: logger, Mux: chi.NewRouter()}
	for _, opt := range opts {
		opt(h)
	}
	h.routes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) { h.Mux.ServeHTTP(w, r) }

func (h *Handler) routes() {
	h.Mux.Use(h.correlate)
	h.Mux.Use(h.accessLog)
	h.Mux.Use(middleware.Recoverer)

	h.Mux.Get("/commands", h.listCommands)
	h.Mux.Post("/commands/{name}", h.dispatch)
	h.Mux.Post("/elements/{id}/load", h.loadElement)
	h.Mux.Get("/state", h.state)
	h.Mux.Get("/structures/active", h.activeStructure)
	if h.metrics != nil {
		h.Mux.Method(http.MethodGet, "/metrics", h.metrics)
	}
}

func (h *Handler) listCommands(w http.ResponseWriter, r *http.Request) {
	h.success(w, r, http.StatusOK, core.Commands())
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		h.fail(w, r, http.StatusRequestEntityTooLarge, "payload_too_large", err)
		return
	}
	cmd := core.Command{Name: chi.URLParam(r, "name")}
	if len(payload) > 0 {
		cmd.Payload = payload
	}
	res, err := h.svc.Dispatch(r.Context(), cmd)
	if err != nil {
		h.commandError(w, r, err)
		return
	}
	if res.Load != nil {
		h.success(w, r, http.StatusOK, res.Load)
		return
	}
	h.success(w, r, http.StatusOK, nil)
}

func (h *Handler) loadElement(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, "decode", fmt.Errorf("element id: %w", err))
		return
	}
	if h.loader == nil {
		res := h.svc.Load(r.Context(), id)
		if res.Err != nil {
			h.commandError(w, r, res.Err)
			return
		}
		h.success(w, r, http.StatusOK, res)
		return
	}
	res, err := h.loader.Load(r.Context(), id)
	if err != nil {
		h.commandError(w, r, err)
		return
	}
	h.success(w, r, http.StatusOK, res)
}

func (h *Handler) state(w http.ResponseWriter, r *http.Request) {
	h.success(w, r, http.StatusOK, h.svc.Snapshot())
}

func (h *Handler) activeStructure(w http.ResponseWriter, r *http.Request) {
	st, ok := h.svc.ActiveStructure(r.Context())
	if !ok {
		h.fail(w, r, http.StatusNotFound, "not_found", errors.New("no active structure"))
		return
	}
	h.success(w, r, http.StatusOK, st)
}

func (h *Handler) commandError(w http.ResponseWriter, r *http.Request, err error) {
	kind := core.ErrorKind(err)
	h.fail(w, r, statusFor(kind), kind, err)
}

func statusFor(kind string) int {
	switch kind {
	case "invalid_action", "decode":
		return http.StatusBadRequest
	case "unknown_command", "not_found":
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) success(w http.ResponseWriter, r *http.Request, status int, data any) {
	h.writeJSON(w, r, status, Response{Success: true, Data: data})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, status int, kind string, err error) {
	if status >= http.StatusInternalServerError {
		h.loggerFor(r).Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	h.writeJSON(w, r, status, Response{Success: false, Kind: kind, Message: err.Error()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.loggerFor(r).Error("encode response", "path", r.URL.Path, "error", err)
	}
}
