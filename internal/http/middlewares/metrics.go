package middlewares

import (
	"net/http"
	"time"

	"github.com/dropDatabas3/websecdemo/internal/metrics"
)

// WithMetrics instrumenta requests HTTP (contador + latencia). Con rec nil
// es un no-op.
func WithMetrics(rec *metrics.Recorder) Middleware {
	return func(next http.Handler) http.Handler {
		if rec == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w}
			defer func() {
				rec.ObserveHTTP(r.Method, r.URL.Path, sr.code(), time.Since(start))
			}()
			next.ServeHTTP(sr, r)
		})
	}
}
