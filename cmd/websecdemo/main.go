package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dropDatabas3/websecdemo/internal/app"
	"github.com/dropDatabas3/websecdemo/internal/attack"
	"github.com/dropDatabas3/websecdemo/internal/config"
	"github.com/dropDatabas3/websecdemo/internal/http/server"
	"github.com/dropDatabas3/websecdemo/internal/observability/logger"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: .env: %v", err)
	}

	var cfgPath = envOr("CONFIG_PATH", "config.yaml")

	root := &cobra.Command{
		Use:           "websecdemo",
		Short:         "Demo de XSS, cookies SameSite, CSRF y CORS con dos origins",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", cfgPath, "Archivo YAML de config (env CONFIG_PATH); opcional")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta el origin app y el origin evil",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Origin: "websecdemo"})
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := c.Close(); err != nil {
					logger.L().Warn("close", logger.Err(err))
				}
			}()

			logger.L().Info("websecdemo ready",
				logger.String("app_url", c.AppURL),
				logger.String("evil_url", c.EvilURL),
				logger.SameSite(cfg.SameSite().String()),
			)
			return server.Run(ctx, server.Options{
				ReadTimeout:     cfg.Server.ReadTimeout,
				WriteTimeout:    cfg.Server.WriteTimeout,
				ShutdownTimeout: cfg.Server.ShutdownTimeout,
			},
				server.Origin{Name: "app", Addr: cfg.Server.Addr, Handler: c.AppHandler()},
				server.Origin{Name: "evil", Addr: cfg.Server.EvilAddr, Handler: c.EvilHandler()},
			)
		},
	}

	var (
		target  = envOr("ATTACK_TARGET", "http://localhost:8000")
		timeout = 30 * time.Second
		verbose bool
	)
	attackCmd := &cobra.Command{
		Use:   "attack",
		Short: "Corre el guion CSRF contra un origin app y muestra la tabla de resultados",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !verbose {
				defer logger.Replace(zap.NewNop())()
			}
			r, err := attack.New(target)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			rep, err := r.Run(ctx)
			if err != nil {
				return err
			}
			if err := rep.WriteTable(cmd.OutOrStdout()); err != nil {
				return err
			}
			if !rep.OK() {
				return fmt.Errorf("attack: some steps returned an unexpected status")
			}
			return nil
		},
	}
	attackCmd.Flags().StringVar(&target, "target", target, "URL del origin app (env ATTACK_TARGET)")
	attackCmd.Flags().DurationVar(&timeout, "timeout", timeout, "Timeout total del guion")
	attackCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Loguea cada paso")

	root.AddCommand(serveCmd, attackCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
