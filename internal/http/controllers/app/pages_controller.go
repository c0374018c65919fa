package app

import (
	"html/template"
	"net/http"

	httperrors "github.com/dropDatabas3/websecdemo/internal/http/errors"
	mw "github.com/dropDatabas3/websecdemo/internal/http/middlewares"
	"github.com/dropDatabas3/websecdemo/internal/http/pages"
	"github.com/dropDatabas3/websecdemo/internal/observability/logger"
)

// PagesController sirve las páginas de sólo lectura.
type PagesController struct {
	d Deps
}

func (c *PagesController) render(w http.ResponseWriter, r *http.Request, name string, data pages.Data) {
	if err := c.d.Pages.Render(w, http.StatusOK, name, data); err != nil {
		logger.From(r.Context()).Error("render failed", logger.Layer("controller"), logger.Op(name), logger.Err(err))
		httperrors.WriteHTMLError(w, err)
	}
}

// Index handles GET /.
func (c *PagesController) Index(w http.ResponseWriter, r *http.Request) {
	sess := mw.MustGetSession(r.Context())
	data := c.d.base("Web security demo")
	data.Session = pages.ViewOf(sess.ID(), sess.Snapshot())
	c.render(w, r, pages.Index, data)
}

// XSSUnsafe handles GET /xss-unsafe. Deliberadamente inseguro: msg vuelve
// al HTML sin escapar.
func (c *PagesController) XSSUnsafe(w http.ResponseWriter, r *http.Request) {
	msg := r.URL.Query().Get("msg")
	data := c.d.base("XSS: unsafe rendering")
	data.Unsafe = true
	data.Message = msg
	data.RawHTML = template.HTML(msg) //nolint:gosec // página vulnerable a propósito
	c.render(w, r, pages.XSS, data)
}

// XSSSafe handles GET /xss-safe.
func (c *PagesController) XSSSafe(w http.ResponseWriter, r *http.Request) {
	data := c.d.base("XSS: safe rendering (escaping)")
	data.Message = r.URL.Query().Get("msg")
	c.render(w, r, pages.XSS, data)
}

// CSRFVulnerable handles GET /csrf-vulnerable.
func (c *PagesController) CSRFVulnerable(w http.ResponseWriter, r *http.Request) {
	sess := mw.MustGetSession(r.Context())
	data := c.d.base("CSRF: vulnerable action (no token)")
	data.Session = pages.ViewOf(sess.ID(), sess.Snapshot())
	data.DefaultAmount = c.d.Ledger.Limits().Default
	c.render(w, r, pages.CSRFForm, data)
}

// CSRFProtected handles GET /csrf-protected: emite (o reutiliza) el token
// y lo pone en un hidden field.
func (c *PagesController) CSRFProtected(w http.ResponseWriter, r *http.Request) {
	sess := mw.MustGetSession(r.Context())
	tok, err := c.d.CSRF.Issue(sess)
	if err != nil {
		logger.From(r.Context()).Error("csrf issue failed", logger.Layer("controller"), logger.Err(err))
		httperrors.WriteHTMLError(w, err)
		return
	}
	data := c.d.base("CSRF: protected action (token)")
	data.Session = pages.ViewOf(sess.ID(), sess.Snapshot())
	data.Protected = true
	data.Token = tok
	data.DefaultAmount = c.d.Ledger.Limits().Default
	c.render(w, r, pages.CSRFForm, data)
}

// CORSDemo handles GET /cors-demo.
func (c *PagesController) CORSDemo(w http.ResponseWriter, r *http.Request) {
	c.render(w, r, pages.CORSDemo, c.d.base("CORS: fetch test"))
}
