package middlewares

import (
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/dropDatabas3/websecdemo/internal/observability/logger"
)

// WithLogging deja en el contexto un logger con request_id, method, path,
// client_ip y, si vino, el header Origin; al terminar loguea una línea por
// request. Un Origin de otro host se marca con cross_origin=true: así se
// ven en el log los requests que dispara la página evil.
//
//	WARN  request completed  {"request_id": "…", "method": "POST", "path": "/do-transfer-safe", "origin": "http://localhost:8001", "cross_origin": true, "status": 403, "bytes": 210, "duration_ms": 1}
func WithLogging() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rid := GetRequestID(r.Context())
			if rid == "" {
				rid = w.Header().Get("X-Request-ID")
			}
			ctx, reqLog := logger.With(r.Context(),
				logger.RequestID(rid),
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
				logger.ClientIP(clientIP(r)),
			)
			if o := r.Header.Get("Origin"); o != "" {
				ctx, reqLog = logger.With(ctx, logger.Origin(o), logger.Bool("cross_origin", crossOrigin(o, r.Host)))
			}

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r.WithContext(ctx))

			status := rec.code()
			if ce := reqLog.Check(levelFor(status), "request completed"); ce != nil {
				ce.Write(
					logger.Status(status),
					logger.Bytes(rec.bytes),
					logger.DurationMs(time.Since(start).Milliseconds()),
				)
			}
		})
	}
}

// levelFor: 5xx error, 4xx warn, resto info.
func levelFor(status int) zapcore.Level {
	switch {
	case status >= 500:
		return zapcore.ErrorLevel
	case status >= 400:
		return zapcore.WarnLevel
	}
	return zapcore.InfoLevel
}

func crossOrigin(origin, host string) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return true
	}
	return u.Host != host
}
