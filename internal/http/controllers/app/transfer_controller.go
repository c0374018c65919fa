package app

import (
	"errors"
	"net/http"

	"github.com/dropDatabas3/websecdemo/internal/auth"
	"github.com/dropDatabas3/websecdemo/internal/csrf"
	httperrors "github.com/dropDatabas3/websecdemo/internal/http/errors"
	mw "github.com/dropDatabas3/websecdemo/internal/http/middlewares"
	"github.com/dropDatabas3/websecdemo/internal/http/pages"
	"github.com/dropDatabas3/websecdemo/internal/ledger"
	"github.com/dropDatabas3/websecdemo/internal/observability/logger"
)

const maxFormBytes = 32 << 10 // 32KB

// TransferController expone los tres caminos de transferencia.
type TransferController struct {
	d Deps
}

// VulnerableGET handles GET /transfer-vuln?amount=. Deliberadamente
// inseguro: un <img src> en cualquier sitio alcanza.
func (c *TransferController) VulnerableGET(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("amount")
	rc, err := c.d.Ledger.TransferVulnerable(r.Context(), mw.MustGetSession(r.Context()), raw, ledger.PathVulnerableGET)
	c.respond(w, r, false, raw, "", rc, err)
}

// VulnerablePOST handles POST /do-transfer-vuln. Deliberadamente inseguro:
// sin token CSRF.
func (c *TransferController) VulnerablePOST(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}
	raw := r.PostForm.Get("amount")
	rc, err := c.d.Ledger.TransferVulnerable(r.Context(), mw.MustGetSession(r.Context()), raw, ledger.PathVulnerablePOST)
	c.respond(w, r, false, raw, "", rc, err)
}

// ProtectedPOST handles POST /do-transfer-safe: login + csrf_token.
func (c *TransferController) ProtectedPOST(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}
	raw := r.PostForm.Get("amount")
	presented := r.PostForm.Get("csrf_token")
	rc, err := c.d.Ledger.TransferProtected(r.Context(), mw.MustGetSession(r.Context()), raw, presented)
	c.respond(w, r, true, raw, presented, rc, err)
}

func parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		httperrors.WriteHTMLError(w, httperrors.New(http.StatusBadRequest, "BAD_FORM", "invalid form body").WithCause(err))
		return false
	}
	return true
}

// respond renderiza el resultado. Los rechazos de auth y csrf usan la
// misma página con el status del error (401/403); el token esperado nunca
// se muestra.
func (c *TransferController) respond(w http.ResponseWriter, r *http.Request, protected bool, raw, presented string, rc ledger.Receipt, err error) {
	sess := mw.MustGetSession(r.Context())
	data := c.d.base("Transfer: result")
	data.Protected = protected
	data.RawAmount = raw

	status := http.StatusOK
	switch {
	case err == nil:
		data.Receipt = rc
	case errors.Is(err, auth.ErrNotAuthenticated):
		data.Title = "Transfer: rejected"
		data.Rejected = true
		data.Reason = "please log in first."
		status = http.StatusUnauthorized
	case errors.Is(err, csrf.ErrInvalidToken):
		data.Title = "Transfer: rejected"
		data.Rejected = true
		data.Reason = "missing or wrong CSRF token."
		data.Presented = presented
		status = http.StatusForbidden
	default:
		logger.From(r.Context()).Error("transfer failed", logger.Layer("controller"), logger.Err(err))
		httperrors.WriteHTMLError(w, err)
		return
	}

	data.Session = pages.ViewOf(sess.ID(), sess.Snapshot())
	if rerr := c.d.Pages.Render(w, status, pages.TransferResult, data); rerr != nil {
		httperrors.WriteHTMLError(w, rerr)
	}
}
