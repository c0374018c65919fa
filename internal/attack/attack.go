// Package attack es un cliente scripteado contra el origin app: reproduce
// con un cookie jar lo que haría el browser de la víctima cuando una página
// de otro origin le dispara requests.
package attack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dropDatabas3/websecdemo/internal/observability/logger"
)

const (
	// ForgedToken es lo que manda un atacante que no puede leer el form.
	ForgedToken = "nincs-token"
	// AttackAmount es el monto del form de la página evil.
	AttackAmount = "9999"
	// LegitAmount es el monto del flujo legítimo con token.
	LegitAmount = "1000"
)

var (
	ErrNoToken = errors.New("attack: csrf token not found in page")

	tokenRE = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)
)

// Step es una fila del reporte.
type Step struct {
	Name    string
	Method  string
	Path    string
	Want    int
	Status  int
	Before  int64
	After   int64
	Comment string
}

// OK indica si el status fue el esperado.
func (s Step) OK() bool { return s.Status == s.Want }

// Report es el resultado completo de Run.
type Report struct {
	Target string
	Steps  []Step
}

// OK es true si todos los pasos dieron el status esperado.
func (r Report) OK() bool {
	for _, s := range r.Steps {
		if !s.OK() {
			return false
		}
	}
	return true
}

// WriteTable imprime el reporte alineado.
func (r Report) WriteTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "target: %s\n", r.Target)
	fmt.Fprintln(tw, "STEP\tREQUEST\tWANT\tGOT\tBALANCE\tRESULT\tNOTE")
	for _, s := range r.Steps {
		res := "ok"
		if !s.OK() {
			res = "UNEXPECTED"
		}
		fmt.Fprintf(tw, "%s\t%s %s\t%d\t%d\t%d → %d\t%s\t%s\n",
			s.Name, s.Method, s.Path, s.Want, s.Status, s.Before, s.After, res, s.Comment)
	}
	return tw.Flush()
}

// Runner ejecuta el guion contra un target.
type Runner struct {
	target *url.URL
	client *http.Client
}

// Option configura un Runner.
type Option func(*Runner)

// WithHTTPClient reemplaza el cliente (su Jar se pisa con uno nuevo).
func WithHTTPClient(c *http.Client) Option {
	return func(r *Runner) {
		if c != nil {
			cp := *c
			r.client = &cp
		}
	}
}

// New valida el target y arma un cliente con cookie jar propio.
func New(target string, opts ...Option) (*Runner, error) {
	u, err := url.Parse(strings.TrimRight(target, "/"))
	if err != nil {
		return nil, fmt.Errorf("attack: target: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("attack: target must be an http(s) URL, got %q", target)
	}

	r := &Runner{target: u, client: &http.Client{Timeout: 10 * time.Second}}
	for _, o := range opts {
		o(r)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	r.client.Jar = jar
	return r, nil
}

// Run ejecuta: transferencia sin login, login, CSRF sobre el camino
// vulnerable, token falso sobre el protegido y por último el flujo legítimo
// con el token leído del form (lo que un origin ajeno no puede hacer).
func (r *Runner) Run(ctx context.Context) (Report, error) {
	log := logger.From(ctx).With(logger.Component("attack"))
	rep := Report{Target: r.target.String()}

	steps := []struct {
		name, method, path string
		form               func() (url.Values, error)
		want               int
		comment            string
	}{
		{"fresh-transfer", http.MethodPost, "/do-transfer-vuln",
			constForm(url.Values{"amount": {AttackAmount}}), http.StatusUnauthorized,
			"no login, no money"},
		{"login", http.MethodPost, "/login", constForm(nil), http.StatusOK,
			"victim logs in"},
		{"csrf-vulnerable", http.MethodPost, "/do-transfer-vuln",
			constForm(url.Values{"amount": {AttackAmount}}), http.StatusOK,
			"cookie alone is enough"},
		{"csrf-forged-token", http.MethodPost, "/do-transfer-safe",
			constForm(url.Values{"amount": {AttackAmount}, "csrf_token": {ForgedToken}}), http.StatusForbidden,
			"attacker cannot read the token"},
		{"legit-with-token", http.MethodPost, "/do-transfer-safe",
			func() (url.Values, error) {
				tok, err := r.scrapeToken(ctx)
				if err != nil {
					return nil, err
				}
				return url.Values{"amount": {LegitAmount}, "csrf_token": {tok}}, nil
			}, http.StatusOK,
			"same-origin form carries the token"},
	}

	for _, st := range steps {
		before, err := r.balance(ctx)
		if err != nil {
			return rep, err
		}
		form, err := st.form()
		if err != nil {
			return rep, err
		}
		status, err := r.post(ctx, st.path, form)
		if err != nil {
			return rep, err
		}
		after, err := r.balance(ctx)
		if err != nil {
			return rep, err
		}

		s := Step{
			Name: st.name, Method: st.method, Path: st.path,
			Want: st.want, Status: status, Before: before, After: after,
			Comment: st.comment,
		}
		rep.Steps = append(rep.Steps, s)
		log.Info("step",
			logger.String("step", s.Name),
			logger.Status(s.Status),
			logger.Balance(s.After),
			logger.Bool("expected", s.OK()),
		)
	}
	return rep, nil
}

func constForm(v url.Values) func() (url.Values, error) {
	return func() (url.Values, error) { return v, nil }
}

func (r *Runner) url(path string) string {
	return r.target.String() + path
}

func (r *Runner) post(ctx context.Context, path string, form url.Values) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url(path), strings.NewReader(form.Encode()))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := r.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("attack: POST %s: %w", path, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func (r *Runner) get(ctx context.Context, path string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url(path), nil)
	if err != nil {
		return nil, 0, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("attack: GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	return body, resp.StatusCode, err
}

func (r *Runner) balance(ctx context.Context) (int64, error) {
	body, status, err := r.get(ctx, "/api/session")
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("attack: /api/session: status %d", status)
	}
	var info struct {
		Balance int64 `json:"balance"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return 0, fmt.Errorf("attack: /api/session: %w", err)
	}
	return info.Balance, nil
}

func (r *Runner) scrapeToken(ctx context.Context) (string, error) {
	body, _, err := r.get(ctx, "/csrf-protected")
	if err != nil {
		return "", err
	}
	m := tokenRE.FindSubmatch(body)
	if m == nil {
		return "", ErrNoToken
	}
	return string(m[1]), nil
}
