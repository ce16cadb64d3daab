package middleware

import (
	"net/http"
	"time"

	"github.com/angelmondragon/cakeshop-backend/pkg/logger"
)

// Logging emits request.start and request.complete with method, path, status,
// size and latency. Everything logged downstream inherits method and path.
func Logging(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logg == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := logg.WithFields(r.Context(), map[string]any{
				"method": r.Method,
				"path":   r.URL.Path,
			})
			logg.Debug(ctx, "request.start")

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r.WithContext(ctx))

			logg.Info(logg.WithFields(ctx, map[string]any{
				"status":      rec.Status(),
				"bytes":       rec.written,
				"duration_ms": time.Since(start).Milliseconds(),
			}), "request.complete")
		})
	}
}
