package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"gtasync/internal/logging"
)

// RequestIDHeader carries the correlation id in and out.
const RequestIDHeader = "X-Request-ID"

// correlate tags the request context with a correlation id (the caller's
// X-Request-ID or a fresh uuid) and the handler's logger.
func (h *Handler) correlate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := logging.WithCorrelationID(r.Context(), id)
		ctx = logging.ContextWithLogger(ctx, h.logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.loggerFor(r).Info("request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", float64(time.Since(start).Microseconds())/1000,
		)
	})
}

func (h *Handler) loggerFor(r *http.Request) *slog.Logger {
	logger := h.logger
	if l := logging.FromContext(r.Context()); l != nil {
		logger = l
	}
	if id := logging.CorrelationID(r.Context()); id != "" {
		logger = logger.With("correlation_id", id)
	}
	return logger
}
