// Package server levanta los dos origins (app y evil) y los apaga juntos.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/websecdemo/internal/observability/logger"
)

// Origin es un listener con su handler.
type Origin struct {
	Name    string
	Addr    string
	Handler http.Handler
}

// Options controla timeouts de todos los servers.
type Options struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// OnListen se llama con la dirección real de cada origin (útil con ":0").
	OnListen func(name, addr string)
}

func (o Options) withDefaults() Options {
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = 10 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 15 * time.Second
	}
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = 5 * time.Second
	}
	return o
}

// Run escucha en todos los origins hasta que ctx se cancela o alguno falla.
// Si un listener no arranca, los demás se apagan y se devuelve ese error.
func Run(ctx context.Context, opts Options, origins ...Origin) error {
	opts = opts.withDefaults()
	log := logger.From(ctx).With(logger.Component("server"))

	listeners := make([]net.Listener, 0, len(origins))
	for _, o := range origins {
		ln, err := net.Listen("tcp", o.Addr)
		if err != nil {
			for _, l := range listeners {
				_ = l.Close()
			}
			return err
		}
		listeners = append(listeners, ln)
	}

	g, gctx := errgroup.WithContext(ctx)
	servers := make([]*http.Server, len(origins))
	for i, o := range origins {
		srv := &http.Server{
			Handler:           o.Handler,
			ReadTimeout:       opts.ReadTimeout,
			ReadHeaderTimeout: opts.ReadTimeout,
			WriteTimeout:      opts.WriteTimeout,
		}
		servers[i] = srv
		ln, name := listeners[i], o.Name

		log.Info("listening", logger.String("origin", name), logger.Addr(ln.Addr().String()))
		if opts.OnListen != nil {
			opts.OnListen(name, ln.Addr().String())
		}

		g.Go(func() error {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("server failed", logger.String("origin", name), logger.Err(err))
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
		defer cancel()

		var errs []error
		for i, srv := range servers {
			if err := srv.Shutdown(shCtx); err != nil {
				log.Warn("shutdown", logger.String("origin", origins[i].Name), logger.Err(err))
				errs = append(errs, err)
			}
		}
		log.Info("servers stopped")
		return errors.Join(errs...)
	})

	return g.Wait()
}
