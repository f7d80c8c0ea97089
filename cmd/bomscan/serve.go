package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/ukaji3/bomscan-go/internal/archive"
	"github.com/ukaji3/bomscan-go/internal/config"
	"github.com/ukaji3/bomscan-go/internal/metrics"
	"github.com/ukaji3/bomscan-go/internal/server"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/mapping"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve <book.xlsx>",
		Short: "Serve a scan session over HTTP",
		Long: `Serve a scan session for one worksheet over a JSON HTTP API.

Scanner front ends post selection gestures, mapping edits and scanned values
to /v1; Prometheus metrics are exposed on /metrics.`,
		Example: `  bomscan serve bom.xlsx
  bomscan serve bom.xlsx --addr :8443 --range B2:F40`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig(cmd.Context())
			logger := getLogger(cmd.Context())

			b, err := openSession(args[0], cfg, logger, metrics.ScanRecorder{})
			if err != nil {
				return err
			}
			defer b.Session.Close()
			b.Session.Selector().Subscribe(metrics.ObserveSelection)

			if cfg.Range != "" {
				if err := b.Session.SelectRange(cfg.Range); err != nil {
					return err
				}
				confirmed, err := preconfirm(b, cfg, logger)
				if err != nil {
					return err
				}
				logger.Info("range preselected", "range", cfg.Range, "mapping_confirmed", confirmed)
			}

			store, err := archive.OpenMigrated(cmd.Context(), cfg.Archive.Path)
			if err != nil {
				return err
			}
			defer store.Close()
			version, err := store.MigrationVersion(cmd.Context())
			if err != nil {
				return err
			}
			logger.Info("archive ready", "path", store.Path(), "schema_version", version)

			handler := server.NewServer(logger, b.Session, server.SheetInfo{
				BookName: b.BookName,
				Name:     b.SheetName,
				Data:     b.Sheet,
			}, store)
			srv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("starting HTTP server", "addr", cfg.Server.Addr, "book", b.BookName, "sheet", b.SheetName)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return err
				}
			case <-ctx.Done():
			}
			logger.Info("shutting down...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("HTTP shutdown error", "error", err)
			}
			logger.Info("shutdown complete")
			return nil
		},
	}

	cmd.Flags().String("addr", config.DefaultAddr, "HTTP listen address")
	return cmd
}

// preconfirm confirms the mapping at startup. Configured overrides must
// apply cleanly. Without overrides, a range whose headers name no target
// column is left for the client to map and preconfirm reports false.
func preconfirm(b *bomSession, cfg *config.Config, logger *slog.Logger) (bool, error) {
	if len(cfg.Mapping) > 0 {
		if _, err := b.confirmMapping(cfg); err != nil {
			return false, err
		}
		return true, nil
	}
	m := b.Session.ProposedMapping()
	if !mapping.Validate(m) {
		logger.Warn("no target column detected, waiting for POST /v1/mapping", "headers", b.Session.Headers())
		return false, nil
	}
	if err := b.Session.ConfirmMapping(m); err != nil {
		return false, err
	}
	return true, nil
}
