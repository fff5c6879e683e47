package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"logiledger/internal/auth"
	"logiledger/internal/domain"
	"logiledger/internal/httpx"
)

const traceIDHeader = "X-Trace-Id"

// CallerResolver turns an Authorization header value into a caller.
type CallerResolver interface {
	ResolveCaller(token string) (domain.Caller, error)
}

// traceID reuses an inbound X-Trace-Id or assigns a new one, and echoes it
// on the response.
func traceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(traceIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(traceIDHeader, id)
		next.ServeHTTP(w, r.WithContext(httpx.WithTraceID(r.Context(), id)))
	})
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("request completed",
				zap.String("traceId", httpx.TraceID(r)),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)))
		})
	}
}

// authenticate rejects requests without a valid bearer token and puts the
// resolved caller on the context.
func authenticate(resolver CallerResolver, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, err := resolver.ResolveCaller(r.Header.Get("Authorization"))
			if err != nil {
				httpx.WriteError(w, httpx.TraceID(r), err, logger)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithCaller(r.Context(), caller)))
		})
	}
}
