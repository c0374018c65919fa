package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/websecdemo/internal/auth"
	"github.com/dropDatabas3/websecdemo/internal/cors"
	appctrl "github.com/dropDatabas3/websecdemo/internal/http/controllers/app"
	"github.com/dropDatabas3/websecdemo/internal/http/controllers/health"
	mw "github.com/dropDatabas3/websecdemo/internal/http/middlewares"
	"github.com/dropDatabas3/websecdemo/internal/metrics"
	"github.com/dropDatabas3/websecdemo/internal/rate"
	"github.com/dropDatabas3/websecdemo/internal/session"
)

// AppRouterDeps contiene las dependencias del origin app.
type AppRouterDeps struct {
	Controllers *appctrl.Controllers
	Health      *health.HealthController
	Store       *session.Store
	Gate        *auth.Gate
	CookieName  string
	Metrics     *metrics.Recorder
	RateLimiter rate.Limiter // opcional: login y transferencias por IP
}

// NewAppRouter registra todas las rutas del origin app.
func NewAppRouter(deps AppRouterDeps) http.Handler {
	c := deps.Controllers
	r := chi.NewRouter()
	baseChain(r, deps.Metrics)

	// infra, sin sesión
	r.Get("/healthz", deps.Health.Healthz)
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(mw.WithSession(deps.Store, deps.CookieName), mw.WithNoStore())
		limited := r.With(mw.WithRateLimit(deps.RateLimiter, mw.IPPathRateKey))

		// páginas
		r.Get("/", c.Pages.Index)
		r.Get("/xss-unsafe", c.Pages.XSSUnsafe)
		r.Get("/xss-safe", c.Pages.XSSSafe)
		r.Get("/cookies", c.Cookies.Cookies)
		r.Get("/set-cookie", c.Cookies.SetCookie)
		r.Get("/csrf-vulnerable", c.Pages.CSRFVulnerable)
		r.Get("/csrf-protected", c.Pages.CSRFProtected)
		r.Get("/cors-demo", c.Pages.CORSDemo)

		// sesión
		limited.Post("/login", c.Session.Login)
		r.Post("/logout", c.Session.Logout)

		// transferencias
		limited.Get("/transfer-vuln", c.Transfer.VulnerableGET)
		limited.Post("/do-transfer-vuln", c.Transfer.VulnerablePOST)
		limited.Post("/do-transfer-safe", c.Transfer.ProtectedPOST)

		// API JSON: la clase CORS de cada endpoint decide qué puede leer otro origin
		r.Route("/api", func(r chi.Router) {
			r.Use(mw.WithSecurityHeaders(mw.APIContentSecurityPolicy))

			r.With(cors.Middleware(cors.Restricted), mw.RequireLogin(deps.Gate)).Get("/private", c.API.Private)
			r.With(cors.Middleware(cors.Restricted)).Get("/session", c.API.SessionInfo)

			public := r.With(cors.Middleware(cors.Open))
			public.Get("/public", c.API.Public)
			public.Options("/public", c.API.Public)
		})
	})

	return r
}
