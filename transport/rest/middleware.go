package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

type loggerCtxKey struct{}

// requestLogger - gives every request its own logger tagged with the request ID set by
// middleware.RequestID, and logs the request start at debug.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := logger.With("request_id", middleware.GetReqID(r.Context()))

			log.Debug("start http", "method", r.Method, "path", r.URL.Path, "host", r.Host, "remote_addr", r.RemoteAddr)

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), loggerCtxKey{}, log)))
		})
	}
}

// loggerFromContext - the request logger, or fallback outside of requestLogger.
func loggerFromContext(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if log, ok := ctx.Value(loggerCtxKey{}).(*slog.Logger); ok {
		return log
	}

	return fallback
}
