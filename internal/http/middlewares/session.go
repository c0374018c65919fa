package middlewares

import (
	"net/http"

	"github.com/dropDatabas3/websecdemo/internal/auth"
	"github.com/dropDatabas3/websecdemo/internal/cookie"
	"github.com/dropDatabas3/websecdemo/internal/http/errors"
	"github.com/dropDatabas3/websecdemo/internal/observability/logger"
	"github.com/dropDatabas3/websecdemo/internal/session"
)

// WithSession resuelve la sesión del cookie cookieName (o crea una) y la deja
// en el contexto. Una sesión nueva emite Set-Cookie con los atributos de su
// modo SameSite.
func WithSession(store *session.Store, cookieName string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var presented string
			if c, err := r.Cookie(cookieName); err == nil {
				presented = c.Value
			}

			sess, isNew, err := store.Resolve(presented)
			if err != nil {
				logger.From(r.Context()).Error("session resolve failed", logger.Component("session"), logger.Err(err))
				errors.Respond(w, r, err)
				return
			}

			ctx, log := logger.With(r.Context(), logger.Session(sess.ID()))
			if isNew {
				mode := sess.Snapshot().SameSite
				if err := cookie.Write(w, cookie.NewDescriptor(cookieName, sess.ID(), mode)); err != nil {
					log.Error("session cookie rejected", logger.Err(err))
					errors.Respond(w, r, err)
					return
				}
				log.Debug("session created", logger.NewSession(true), logger.SameSite(mode.String()))
			}

			ctx = WithSessionContext(ctx, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireLogin corta con 401 si la sesión del request no está autenticada.
func RequireLogin(g *auth.Gate) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := GetSession(r.Context())
			if sess == nil {
				errors.Respond(w, r, auth.ErrNotAuthenticated)
				return
			}
			if err := g.RequireAuthenticated(sess); err != nil {
				errors.Respond(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
