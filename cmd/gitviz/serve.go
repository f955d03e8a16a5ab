package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sergeknystautas/gitviz/internal/config"
	"github.com/sergeknystautas/gitviz/internal/dashboard"
	"github.com/sergeknystautas/gitviz/internal/github"
	"github.com/sergeknystautas/gitviz/internal/version"
	"github.com/sergeknystautas/gitviz/internal/visualize"
)

const configReloadDebounce = 100 * time.Millisecond

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the visualization HTTP API.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, s, err := opts.load()
			if err != nil {
				return err
			}
			logger, err := newLogger(s)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = s.Server.Addr
			}

			client := newGitHubClient(s, logger)
			server := dashboard.NewServer(
				cfg,
				visualize.NewGraphBuilder(client, logger),
				visualize.NewReporter(client, logger),
				visualize.NewCatalog(client, logger),
				logger,
				version.Version,
			)

			if cfg.Path() != "" {
				w, err := config.NewWatcher(cfg, configReloadDebounce, logger, func(s config.Settings) {
					applySettings(client, server, s)
				})
				if err != nil {
					logger.Warn("config hot reload disabled", "err", err)
				} else {
					w.Start()
					defer w.Stop()
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("starting gitviz", "version", version.Version, "addr", addr, "config", cfg.Path())
			if err := server.ListenAndServe(ctx, addr); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			logger.Info("stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

// applySettings pushes the hot-reloadable settings into the running client
// and server.
func applySettings(client *github.Client, server *dashboard.Server, s config.Settings) {
	client.SetPageSize(s.GitHub.PageSize)
	client.SetTimeout(s.GitHub.RequestTimeout)
	server.SetRateLimit(s.RateLimit.Requests, s.RateLimit.Window)
}
