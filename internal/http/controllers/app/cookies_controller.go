package app

import (
	"fmt"
	"net/http"

	"github.com/dropDatabas3/websecdemo/internal/cookie"
	httperrors "github.com/dropDatabas3/websecdemo/internal/http/errors"
	mw "github.com/dropDatabas3/websecdemo/internal/http/middlewares"
	"github.com/dropDatabas3/websecdemo/internal/http/pages"
	"github.com/dropDatabas3/websecdemo/internal/observability/logger"
	"github.com/dropDatabas3/websecdemo/internal/session"
)

// DemoCookieName es el cookie auxiliar que muestra el modo elegido.
const DemoCookieName = "demo"

// CookiesController muestra y cambia el modo SameSite de la sesión.
type CookiesController struct {
	d Deps
}

// Cookies handles GET /cookies.
func (c *CookiesController) Cookies(w http.ResponseWriter, r *http.Request) {
	sess := mw.MustGetSession(r.Context())
	data := c.d.base("Cookie flags")
	data.Session = pages.ViewOf(sess.ID(), sess.Snapshot())
	data.Modes = pages.ModeCards(c.d.CookieName)
	if err := c.d.Pages.Render(w, http.StatusOK, pages.Cookies, data); err != nil {
		httperrors.WriteHTMLError(w, err)
	}
}

// SetCookie handles GET /set-cookie?mode=. Un modo desconocido se normaliza
// a Lax. Guarda el modo en la sesión y re-emite el cookie de sesión con los
// nuevos atributos más el cookie demo.
func (c *CookiesController) SetCookie(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("CookiesController.SetCookie"))
	sess := mw.MustGetSession(ctx)
	mode := cookie.ParseSameSiteMode(r.URL.Query().Get("mode"))

	_ = sess.Update(func(st *session.State) error {
		st.SameSite = mode
		st.LastAction = fmt.Sprintf("cookie mode set to SameSite=%s", mode)
		return nil
	})

	for _, d := range []cookie.Descriptor{
		cookie.NewDescriptor(c.d.CookieName, sess.ID(), mode),
		cookie.NewDescriptor(DemoCookieName, mode.Param(), mode),
	} {
		if err := cookie.Write(w, d); err != nil {
			log.Error("cookie rejected", logger.Err(err))
			httperrors.WriteHTMLError(w, err)
			return
		}
	}

	log.Info("samesite mode changed", logger.SameSite(mode.String()))
	http.Redirect(w, r, "/cookies", http.StatusFound)
}
