// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/essay-brainstormer/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the brainstorming dialogue over HTTP",
	Long: `Serve starts the HTTP API (POST /start-session, POST /chat,
GET|DELETE /sessions/:id, GET /healthz). Sessions live in memory and are
dropped after the configured idle timeout. SIGINT or SIGTERM triggers a
graceful shutdown.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	mgr, closeStore, err := buildManager(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	srv := server.New(cfg.Server, mgr, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	if cfg.Session.IdleTimeout > 0 && cfg.Session.PruneInterval > 0 {
		g.Go(func() error {
			pruneLoop(gctx, mgr, cfg.Session.PruneInterval, cfg.Session.IdleTimeout)
			return nil
		})
	}
	return g.Wait()
}

type pruner interface {
	Prune(now time.Time, idle time.Duration) int
}

// pruneLoop drops sessions idle longer than idle every interval until ctx
// is done.
func pruneLoop(ctx context.Context, p pruner, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			p.Prune(now, idle)
		}
	}
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8000)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
}
