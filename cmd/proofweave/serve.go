package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/proofweave"
	"github.com/aretw0/proofweave/internal/cli"
	"github.com/aretw0/proofweave/internal/presentation/tui"
	httpAdapter "github.com/aretw0/proofweave/pkg/adapters/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts the proofweave engine in server mode, exposing the session API over HTTP.
Graph changes are pushed to subscribers over Server-Sent Events, and Prometheus
metrics are served on a separate port.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		if cmd.Flags().Changed("port") {
			e.cfg.Server.Port, _ = cmd.Flags().GetInt("port")
		}
		if cmd.Flags().Changed("metrics-port") {
			e.cfg.Server.MetricsPort, _ = cmd.Flags().GetInt("metrics-port")
		}

		streams := httpAdapter.NewStreamManager(e.logger)
		rt, err := cli.CreateEngine(e.cfg, e.logger, proofweave.WithLifecycleHooks(streams.Hooks()))
		if err != nil {
			return err
		}
		e.closers = append(e.closers, rt)

		opts := []httpAdapter.Option{
			httpAdapter.WithStreams(streams),
			httpAdapter.WithLogger(e.logger),
			httpAdapter.WithDirection(e.cfg.Direction),
		}
		if e.cfg.Server.MetricsPort == 0 {
			opts = append(opts, httpAdapter.WithMetrics(rt.Registry))
		}
		handler, err := httpAdapter.NewHandler(rt.Engine, opts...)
		if err != nil {
			return err
		}

		if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
			tui.PrintBanner(cmd.ErrOrStderr())
		}

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		servers := []*http.Server{{
			Addr:              fmt.Sprintf(":%d", e.cfg.Server.Port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}}
		if e.cfg.Server.MetricsPort > 0 {
			servers = append(servers, &http.Server{
				Addr:              fmt.Sprintf(":%d", e.cfg.Server.MetricsPort),
				Handler:           promhttp.HandlerFor(rt.Registry, promhttp.HandlerOpts{}),
				ReadHeaderTimeout: 10 * time.Second,
			})
		}

		err = serveAll(sc, e.logger, servers...)
		if sig := sc.Signal(); sig != nil {
			e.logger.Info("server stopped", "signal", sig.String())
		}
		return err
	},
}

// serveAll runs every server until ctx is done or one of them fails, then
// shuts them all down.
func serveAll(ctx context.Context, logger *slog.Logger, servers ...*http.Server) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			logger.Info("listening", "address", srv.Addr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("graceful shutdown of %s failed: %w", srv.Addr, err))
				_ = srv.Close()
			}
		}
		return errors.Join(errs...)
	})
	return g.Wait()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().Int("metrics-port", 9090, "Port serving Prometheus metrics (0 disables it)")
	serveCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner")
}
