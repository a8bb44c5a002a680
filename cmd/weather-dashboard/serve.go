package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	v1 "weather-dashboard/internal/controllers/http/v1"
	"weather-dashboard/internal/query"
	"weather-dashboard/pkg/httpserver"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard as a local JSON API",
		Args:  cobra.NoArgs,
		RunE: opts.run(func(ctx context.Context, a *application, _ *cobra.Command, _ []string) error {
			svc, err := a.weather()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			janitor, err := query.NewJanitor(a.queries, a.cfg.Cache.SweepInterval, a.cfg.Cache.RefetchInterval, a.l)
			if err != nil {
				return err
			}
			janitor.Start()

			app := httpserver.InitFiberServer(a.cfg.App.Name)

			var authenticator v1.Authenticator
			if a.auth != nil {
				authenticator = a.auth
			}
			v1.NewRouter(app, svc, a.store, authenticator, a.l)

			go func() {
				if err := app.Listen(":" + a.cfg.Server.Port); err != nil {
					a.l.Error(err, map[string]any{"msg": "cannot run the server"})
					cancel()
				}
			}()

			a.l.Info("application started successfully", map[string]any{"port": a.cfg.Server.Port})

			sigCh := make(chan os.Signal, 2)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer func() {
				a.l.Warning("stopping application services")
				signal.Stop(sigCh)

				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer shutdownCancel()

				_ = app.ShutdownWithContext(shutdownCtx)
				janitor.Stop()
			}()

			select {
			case <-sigCh:
				a.l.Info("received shutdown signal")
			case <-ctx.Done():
				a.l.Info("context cancelled")
			}
			return nil
		}),
	}
}
