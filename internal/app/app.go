// Package app arma el contenedor de dependencias a partir de la config.
package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	rdb "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dropDatabas3/websecdemo/internal/auth"
	"github.com/dropDatabas3/websecdemo/internal/config"
	"github.com/dropDatabas3/websecdemo/internal/csrf"
	appctrl "github.com/dropDatabas3/websecdemo/internal/http/controllers/app"
	"github.com/dropDatabas3/websecdemo/internal/http/controllers/evil"
	"github.com/dropDatabas3/websecdemo/internal/http/controllers/health"
	"github.com/dropDatabas3/websecdemo/internal/http/pages"
	"github.com/dropDatabas3/websecdemo/internal/http/router"
	"github.com/dropDatabas3/websecdemo/internal/ledger"
	"github.com/dropDatabas3/websecdemo/internal/metrics"
	"github.com/dropDatabas3/websecdemo/internal/observability/logger"
	"github.com/dropDatabas3/websecdemo/internal/rate"
	"github.com/dropDatabas3/websecdemo/internal/session"
)

type Container struct {
	Config  *config.Config
	Metrics *metrics.Recorder
	Store   *session.Store
	CSRF    *csrf.Manager
	Gate    *auth.Gate
	Ledger  *ledger.Service
	Limiter rate.Limiter
	Pages   *pages.Renderer

	AppURL  string
	EvilURL string

	closers []func() error
}

// New construye el motor y su infraestructura. Con rate backend redis
// inalcanzable cae a memoria con un warn.
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	log := logger.L().With(logger.Component("app"))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	rec, err := metrics.New(reg)
	if err != nil {
		return nil, err
	}

	c := &Container{
		Config:  cfg,
		Metrics: rec,
		AppURL:  PublicURL(cfg.Server.Addr),
		EvilURL: PublicURL(cfg.Server.EvilAddr),
	}

	c.Store = session.NewStore(
		session.WithDefaults(session.Defaults{
			Balance:  cfg.Ledger.InitialBalance,
			SameSite: cfg.SameSite(),
		}),
		session.WithObserver(rec),
	)
	if err := rec.TrackActiveSessions(c.Store.Len); err != nil {
		return nil, err
	}

	c.CSRF = csrf.NewManager(csrf.WithObserver(rec))
	c.Gate = auth.NewGate(c.CSRF, cfg.Demo.Username, rec)
	c.Ledger = ledger.NewService(ledger.Limits{
		Min:     cfg.Ledger.MinAmount,
		Max:     cfg.Ledger.MaxAmount,
		Default: cfg.Ledger.DefaultAmount,
	}, rec)

	if c.Pages, err = pages.New(); err != nil {
		return nil, err
	}

	if cfg.Rate.Enabled {
		c.Limiter = c.buildLimiter(ctx, log)
	}
	return c, nil
}

func (c *Container) buildLimiter(ctx context.Context, log *zap.Logger) rate.Limiter {
	rc := c.Config.Rate
	if rc.Backend == "redis" {
		client := rdb.NewClient(&rdb.Options{
			Addr:     rc.Redis.Addr,
			DB:       rc.Redis.DB,
			Password: rc.Redis.Password,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			log.Warn("redis unavailable, using in-memory rate limiter", logger.Addr(rc.Redis.Addr), logger.Err(err))
			_ = client.Close()
		} else {
			c.closers = append(c.closers, client.Close)
			log.Info("rate limiter ready", logger.String("backend", "redis"), logger.Addr(rc.Redis.Addr))
			return rate.NewRedisLimiter(client, rc.Redis.Prefix, rc.Limit, rc.Window)
		}
	}
	log.Info("rate limiter ready", logger.String("backend", "memory"))
	return rate.NewMemoryLimiter(rc.Limit, rc.Window)
}

// AppHandler devuelve el handler del origin app.
func (c *Container) AppHandler() http.Handler {
	return router.NewAppRouter(router.AppRouterDeps{
		Controllers: appctrl.NewControllers(appctrl.Deps{
			Gate:       c.Gate,
			CSRF:       c.CSRF,
			Ledger:     c.Ledger,
			Pages:      c.Pages,
			CookieName: c.Config.Session.CookieName,
			AppURL:     c.AppURL,
			EvilURL:    c.EvilURL,
		}),
		Health:      health.NewHealthController(c.Store.Len),
		Store:       c.Store,
		Gate:        c.Gate,
		CookieName:  c.Config.Session.CookieName,
		Metrics:     c.Metrics,
		RateLimiter: c.Limiter,
	})
}

// EvilHandler devuelve el handler del origin evil.
func (c *Container) EvilHandler() http.Handler {
	return router.NewEvilRouter(router.EvilRouterDeps{
		Controller: evil.NewController(c.Pages, c.AppURL, c.EvilURL),
		Health:     health.NewHealthController(nil),
	})
}

// Close libera conexiones externas (redis).
func (c *Container) Close() error {
	var errs []error
	for _, fn := range c.closers {
		errs = append(errs, fn())
	}
	return errors.Join(errs...)
}

// PublicURL convierte una dirección de escucha en la URL que ve el browser.
// Hosts vacíos o de loopback pasan a "localhost": ambos origins comparten
// host y difieren en puerto, o sea distinto origin pero mismo site.
func PublicURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	switch host {
	case "", "0.0.0.0", "127.0.0.1", "::", "::1":
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}
