package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/websecdemo/internal/cors"
	"github.com/dropDatabas3/websecdemo/internal/http/controllers/evil"
	"github.com/dropDatabas3/websecdemo/internal/http/controllers/health"
)

// EvilRouterDeps contiene las dependencias del origin evil.
type EvilRouterDeps struct {
	Controller *evil.Controller
	Health     *health.HealthController
}

// NewEvilRouter registra las rutas del origin evil. Sin sesión, rate limit
// ni métricas (las rutas chocarían con las de la app).
func NewEvilRouter(deps EvilRouterDeps) http.Handler {
	c := deps.Controller
	r := chi.NewRouter()
	baseChain(r, nil)

	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/", c.Index)
	r.Get("/csrf-attack.html", c.CSRFAttack)
	r.Get("/cors-evil.html", c.CORSEvil)

	r.With(cors.Middleware(cors.Restricted)).Get("/api/no-cors", c.NoCORS)
	open := r.With(cors.Middleware(cors.Open))
	open.Get("/api/with-cors", c.WithCORS)
	open.Options("/api/with-cors", c.WithCORS)

	return r
}
