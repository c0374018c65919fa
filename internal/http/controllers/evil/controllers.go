// Package evil contiene los controllers del origin atacante. No tiene
// sesión: sólo sirve páginas que apuntan a la app.
package evil

import (
	"net/http"

	"github.com/dropDatabas3/websecdemo/internal/attack"
	httperrors "github.com/dropDatabas3/websecdemo/internal/http/errors"
	"github.com/dropDatabas3/websecdemo/internal/http/pages"
	"github.com/dropDatabas3/websecdemo/internal/observability/logger"
)

// Controller sirve el origin evil.
type Controller struct {
	pages   *pages.Renderer
	appURL  string
	evilURL string
}

// NewController crea el controller.
func NewController(p *pages.Renderer, appURL, evilURL string) *Controller {
	return &Controller{pages: p, appURL: appURL, evilURL: evilURL}
}

func (c *Controller) data(title string) pages.Data {
	return pages.Data{Title: title, Evil: true, AppURL: c.appURL, EvilURL: c.evilURL}
}

func (c *Controller) render(w http.ResponseWriter, r *http.Request, name string, d pages.Data) {
	if err := c.pages.Render(w, http.StatusOK, name, d); err != nil {
		logger.From(r.Context()).Error("render failed", logger.Layer("controller"), logger.Op(name), logger.Err(err))
		httperrors.WriteHTMLError(w, err)
	}
}

// Index handles GET /.
func (c *Controller) Index(w http.ResponseWriter, r *http.Request) {
	c.render(w, r, pages.EvilIndex, c.data("Evil origin"))
}

// CSRFAttack handles GET /csrf-attack.html.
func (c *Controller) CSRFAttack(w http.ResponseWriter, r *http.Request) {
	d := c.data("CSRF: evil origin page")
	// mismo payload que el cliente scripteado
	d.AttackAmount = attack.AttackAmount
	d.ForgedToken = attack.ForgedToken
	c.render(w, r, pages.EvilCSRF, d)
}

// CORSEvil handles GET /cors-evil.html.
func (c *Controller) CORSEvil(w http.ResponseWriter, r *http.Request) {
	c.render(w, r, pages.EvilCORS, c.data("CORS: evil origin page"))
}

// NoCORS handles GET /api/no-cors (Restricted).
func (c *Controller) NoCORS(w http.ResponseWriter, r *http.Request) {
	httperrors.WriteJSON(w, http.StatusOK, map[string]string{"msg": "no CORS headers here"})
}

// WithCORS handles GET /api/with-cors (Open).
func (c *Controller) WithCORS(w http.ResponseWriter, r *http.Request) {
	httperrors.WriteJSON(w, http.StatusOK, map[string]string{"msg": "CORS allowed (ACAO: *)"})
}
