package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/cardflow"
	"github.com/aretw0/cardflow/internal/cli"
	"github.com/aretw0/cardflow/internal/jobs"
	httpAdapter "github.com/aretw0/cardflow/pkg/adapters/http"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/observability"
	"github.com/aretw0/cardflow/pkg/persistence/middleware"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP editor API",
	Long: `Serves the stored flow over a JSON API with Prometheus metrics on /metrics and
assistant profile updates as server-sent events on /events.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		metrics := observability.NewMetrics()
		debug, _ := cmd.Flags().GetBool("debug")
		hooks := metrics.Hooks()
		if debug {
			hooks = cli.ChainHooks(hooks, cli.DebugHooks(logger))
		}

		editor, backend, err := cli.NewEditor(sc, cfg, logger, cardflow.WithLifecycleHooks(hooks))
		if err != nil {
			return err
		}
		defer backend.Close()
		defer editor.Close()

		unsubscribe := editor.Profiles().Subscribe(metrics.ProfileListener())
		defer unsubscribe()

		if err := editor.Load(sc); err != nil {
			if !errors.Is(err, domain.ErrSlotNotFound) {
				return err
			}
			logger.Info("no stored flow, starting with an empty canvas")
		}

		if cfg.Backup.Schedule != "" {
			masker, err := middleware.NewMasker(cfg.Backup.Mask)
			if err != nil {
				return err
			}
			backup := jobs.NewBackup(backend.Slots, cfg.Backup.Dir, logger, jobs.WithMasker(masker))
			c, err := jobs.Schedule(sc, cfg.Backup.Schedule, backup)
			if err != nil {
				return err
			}
			defer c.Stop()
			logger.Info("flow backups scheduled", "schedule", cfg.Backup.Schedule, "dir", cfg.Backup.Dir)
		}

		api := httpAdapter.NewServer(editor, httpAdapter.WithLogger(logger), httpAdapter.WithMetrics(metrics))
		defer api.Close()

		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           api.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("cardflow server listening", "address", srv.Addr, "store", cfg.Store.Backend)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case <-sc.Done():
			logger.Info("shutting down", "signal", sc.Signal())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "timeout", 5*time.Second, "error", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			logger.Info("cardflow server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}
