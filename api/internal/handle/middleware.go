package handle

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const RequestIDHeader = "X-Request-ID"

type ctxKey struct{}

type requestInfo struct {
	id  string
	log *zap.Logger
}

// RequestID tags every request with an id (the client's, when it is a valid
// uuid) and logs the outcome.
func (h *Handle) RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		log := h.log.With(zap.String("request_id", id))
		r = r.WithContext(context.WithValue(r.Context(), ctxKey{}, requestInfo{id: id, log: log}))

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sw, r)
		if r.URL.Path == "/healthz" {
			return
		}
		log.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("took", time.Since(start)),
		)
	})
}

func RequestIDFrom(ctx context.Context) string {
	if ri, ok := ctx.Value(ctxKey{}).(requestInfo); ok {
		return ri.id
	}
	return ""
}

func requestLogger(r *http.Request, def *zap.Logger) *zap.Logger {
	if ri, ok := r.Context().Value(ctxKey{}).(requestInfo); ok {
		return ri.log
	}
	return def
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (s *statusWriter) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
