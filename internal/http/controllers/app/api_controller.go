package app

import (
	"net/http"

	httperrors "github.com/dropDatabas3/websecdemo/internal/http/errors"
	mw "github.com/dropDatabas3/websecdemo/internal/http/middlewares"
	tokens "github.com/dropDatabas3/websecdemo/internal/security/token"
)

// APIController sirve los endpoints JSON. Las cabeceras CORS las pone el
// router según la clase de cada endpoint.
type APIController struct {
	d Deps
}

// Private handles GET /api/private (Restricted, requiere login).
func (c *APIController) Private(w http.ResponseWriter, r *http.Request) {
	st := mw.MustGetSession(r.Context()).Snapshot()
	httperrors.WriteJSON(w, http.StatusOK, map[string]any{
		"secret":   "TOP-SECRET",
		"username": st.Username,
		"balance":  st.Balance,
	})
}

// Public handles GET /api/public (Open).
func (c *APIController) Public(w http.ResponseWriter, r *http.Request) {
	httperrors.WriteJSON(w, http.StatusOK, map[string]any{
		"msg": "public data, readable from any origin",
	})
}

// SessionInfo handles GET /api/session (Restricted). Nunca incluye el id
// ni el valor del token.
func (c *APIController) SessionInfo(w http.ResponseWriter, r *http.Request) {
	sess := mw.MustGetSession(r.Context())
	st := sess.Snapshot()
	httperrors.WriteJSON(w, http.StatusOK, map[string]any{
		"session":           tokens.Fingerprint(sess.ID()),
		"authenticated":     st.Authenticated,
		"username":          st.Username,
		"balance":           st.Balance,
		"samesite":          st.SameSite.String(),
		"csrf_token_issued": st.HasToken(),
		"last_action":       st.LastAction,
	})
}
