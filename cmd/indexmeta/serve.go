package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/redbco/redb-indexmeta/internal/server"
	"github.com/redbco/redb-indexmeta/pkg/health"
)

// serveCmd runs the HTTP trigger
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve reindex triggers, health and metrics over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, true)
		if err != nil {
			return err
		}
		defer a.Close()

		addr := a.cfg.Server.Addr
		if v, _ := cmd.Flags().GetString("addr"); v != "" {
			addr = v
		}

		a.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewDBStatsCollector(a.db, a.cfg.Database.Name),
		)

		checker := health.NewChecker()
		checker.Register("database", func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			return a.db.PingContext(ctx)
		})
		if a.redis != nil {
			checker.Register("redis", func(ctx context.Context) error {
				ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
				defer cancel()
				return a.redis.Ping(ctx)
			})
		}

		srv := server.New(a.engine, server.Config{
			Addr:            addr,
			Timeout:         a.cfg.Engine.Timeout,
			ReindexInterval: a.cfg.Server.ReindexInterval,
			Health:          checker,
			Gatherer:        a.registry,
			Logger:          a.log,
		})
		return srv.Run(ctx)
	},
}
