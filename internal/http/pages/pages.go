// Package pages renderiza las páginas HTML de ambos origins con html/template.
package pages

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/dropDatabas3/websecdemo/internal/cookie"
	"github.com/dropDatabas3/websecdemo/internal/ledger"
	tokens "github.com/dropDatabas3/websecdemo/internal/security/token"
	"github.com/dropDatabas3/websecdemo/internal/session"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Nombres de página
const (
	Index          = "index.html"
	XSS            = "xss.html"
	Cookies        = "cookies.html"
	CSRFForm       = "csrf_form.html"
	TransferResult = "transfer.html"
	CORSDemo       = "cors_demo.html"
	EvilIndex      = "evil_index.html"
	EvilCORS       = "evil_cors.html"
	EvilCSRF       = "evil_csrf.html"
)

var all = []string{Index, XSS, Cookies, CSRFForm, TransferResult, CORSDemo, EvilIndex, EvilCORS, EvilCSRF}

// SessionView es lo que una página puede mostrar de la sesión: nunca el id
// ni el token.
type SessionView struct {
	Fingerprint   string
	Authenticated bool
	Username      string
	Balance       int64
	SameSite      string
	HasToken      bool
	LastAction    string
}

// ViewOf arma la vista a partir de un snapshot.
func ViewOf(id string, st session.State) SessionView {
	return SessionView{
		Fingerprint:   tokens.Fingerprint(id),
		Authenticated: st.Authenticated,
		Username:      st.Username,
		Balance:       st.Balance,
		SameSite:      st.SameSite.String(),
		HasToken:      st.HasToken(),
		LastAction:    st.LastAction,
	}
}

// ModeCard describe un botón de la página de cookies.
type ModeCard struct {
	Name   string
	Param  string
	Secure bool
	Note   string
	Header string
}

var modeNotes = map[cookie.SameSiteMode]string{
	cookie.Lax:    "Good default for most web apps: cross-site subresource and POST requests carry no cookie.",
	cookie.Strict: "Stricter: even top-level links from other sites arrive without the cookie.",
	cookie.None:   "Needed for cross-site use (SSO, embeds). Requires Secure.",
}

// ModeCards devuelve una tarjeta por modo, con el Set-Cookie que emitiría.
func ModeCards(cookieName string) []ModeCard {
	out := make([]ModeCard, 0, len(cookie.Modes()))
	for _, m := range cookie.Modes() {
		out = append(out, ModeCard{
			Name:   m.String(),
			Param:  m.Param(),
			Secure: cookie.AttributesFor(m).Secure,
			Note:   modeNotes[m],
			Header: cookie.NewDescriptor(cookieName, "…", m).String(),
		})
	}
	return out
}

// Data es el modelo común de todas las plantillas; cada página usa su parte.
type Data struct {
	Title    string
	Evil     bool
	AppURL   string
	EvilURL  string
	Session  SessionView
	Username string

	// xss
	Unsafe  bool
	Message string
	RawHTML template.HTML

	// cookies
	Modes []ModeCard

	// csrf forms y resultado de transferencias
	Protected     bool
	Token         string
	DefaultAmount int64
	Rejected      bool
	Reason        string
	RawAmount     string
	Presented     string
	Receipt       ledger.Receipt

	// evil
	AttackAmount string
	ForgedToken  string
}

// Renderer tiene un template set por página (layout + content).
type Renderer struct {
	sets map[string]*template.Template
}

// New parsea todas las plantillas embebidas.
func New() (*Renderer, error) {
	r := &Renderer{sets: make(map[string]*template.Template, len(all))}
	for _, name := range all {
		t, err := template.ParseFS(templatesFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("pages: parse %s: %w", name, err)
		}
		r.sets[name] = t
	}
	return r, nil
}

// Render ejecuta en buffer y recién después escribe status y body, así un
// error de template no deja una página a medias.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, d Data) error {
	t, ok := r.sets[name]
	if !ok {
		return fmt.Errorf("pages: unknown page %q", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", d); err != nil {
		return fmt.Errorf("pages: render %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
