package app

import (
	"net/http"

	httperrors "github.com/dropDatabas3/websecdemo/internal/http/errors"
	mw "github.com/dropDatabas3/websecdemo/internal/http/middlewares"
	"github.com/dropDatabas3/websecdemo/internal/observability/logger"
)

// SessionController maneja login/logout de la identidad demo.
type SessionController struct {
	d Deps
}

// Login handles POST /login. No hay credenciales: marcar la sesión como
// autenticada alcanza para la demo. El token CSRF rota en el login.
func (c *SessionController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, err := c.d.Gate.Login(ctx, mw.MustGetSession(ctx)); err != nil {
		logger.From(ctx).Error("login failed", logger.Layer("controller"), logger.Err(err))
		httperrors.Respond(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout handles POST /logout.
func (c *SessionController) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := c.d.Gate.Logout(ctx, mw.MustGetSession(ctx)); err != nil {
		httperrors.Respond(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
