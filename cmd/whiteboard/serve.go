package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/whiteboard"
	"github.com/aretw0/whiteboard/internal/cli"
	"github.com/aretw0/whiteboard/internal/logging"
	whttp "github.com/aretw0/whiteboard/pkg/adapters/http"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve sessions over HTTP",
	Long: `Starts the HTTP API: sessions, board snapshots, message submission,
Server-Sent Events of board changes and Prometheus metrics at /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()
		cmd.SetContext(sigCtx)

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		level, err := logging.ParseLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		rt, err := cli.NewRuntime(sigCtx, cfg, cli.WithRuntimeLogger(logging.NewJSON(os.Stderr, level)))
		if err != nil {
			return err
		}
		defer rt.Close()

		addr := rt.Config.Listen
		if cmd.Flags().Changed("addr") {
			addr, _ = cmd.Flags().GetString("addr")
		}

		api := whttp.NewServer(rt.Manager, rt.Engine.Build,
			whttp.WithVersion(whiteboard.Version),
			whttp.WithTools(rt.Engine.Registry().Definitions()),
			whttp.WithMetrics(rt.Metrics.Handler()),
			whttp.WithLogger(rt.Logger),
		)

		srv := &http.Server{
			Addr:              addr,
			Handler:           api.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, ctx := errgroup.WithContext(sigCtx)
		g.Go(func() error {
			rt.Logger.Info("Starting Whiteboard Server", "address", addr, "store", rt.Config.Store.Kind)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				_ = srv.Close()
				return fmt.Errorf("graceful shutdown did not complete: %w", err)
			}
			rt.Logger.Info("Whiteboard Server stopped gracefully", "signal", fmt.Sprint(sigCtx.Signal()))
			return nil
		})
		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
}
