// Package main provides the CLI entry point for bomscan.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/ukaji3/bomscan-go/internal/config"
	"github.com/ukaji3/bomscan-go/internal/logging"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/selection"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

type configKey struct{}

type loggerKey struct{}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "bomscan",
		Short: "Match scanned QR codes against a BOM spreadsheet",
		Long: `bomscan loads a bill of materials from an Excel workbook, selects the
BOM range, maps its columns and matches scanned codes against it.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}

			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			ctx = context.WithValue(ctx, loggerKey{}, logger)
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./bomscan.yaml)")
	flags.String("sheet", "", "Worksheet name (default: first sheet)")
	flags.StringP("range", "r", "", "BOM range, e.g. B2:F40 (default: suggested range)")
	flags.String("mode", selection.ModeDrag.String(), "Selection mode: drag or click")
	flags.Duration("timeout", selection.DefaultTimeout, "Click-mode selection timeout")
	flags.Float64("move-threshold", selection.DefaultMoveThreshold, "Touch scroll threshold in pixels")
	flags.StringArray("map", nil, "Column override slot=COLUMN, e.g. target=D (repeatable)")
	flags.String("archive", config.DefaultArchivePath, "Session archive database")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.String("log-format", "text", "Log format: text or json")

	rootCmd.AddCommand(newVersionCommand(Version))
	rootCmd.AddCommand(newInspectCommand())
	rootCmd.AddCommand(newMatchCommand())
	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newHistoryCommand())

	return rootCmd
}

// getConfig retrieves the config from the command context.
func getConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	if cfg, err := config.Load("", nil); err == nil {
		return cfg
	}
	return &config.Config{}
}

// getLogger retrieves the logger from the command context.
func getLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return logging.Discard()
}
