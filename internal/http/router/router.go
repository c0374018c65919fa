// Package router arma los handlers chi de ambos origins.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	httperrors "github.com/dropDatabas3/websecdemo/internal/http/errors"
	mw "github.com/dropDatabas3/websecdemo/internal/http/middlewares"
	"github.com/dropDatabas3/websecdemo/internal/metrics"
)

// baseChain es la infra común de los dos origins: recover, request id,
// security headers, métricas y logging, en ese orden.
func baseChain(r chi.Router, rec *metrics.Recorder) {
	r.Use(mw.Funcs(
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithSecurityHeaders(""),
		mw.WithMetrics(rec),
		mw.WithLogging(),
	)...)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httperrors.Respond(w, r, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httperrors.Respond(w, r, httperrors.ErrMethodNotAllowed)
	})
}
