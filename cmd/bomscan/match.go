package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/ukaji3/bomscan-go/internal/archive"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/cellref"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/models"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/output"
)

func newMatchCommand() *cobra.Command {
	var (
		exportPath string
		save       bool
		name       string
		format     string
	)

	cmd := &cobra.Command{
		Use:   "match <book.xlsx> [values...]",
		Short: "Match scanned values against a BOM",
		Long: `Match scanned values against the BOM range of a workbook.

Values are taken from the arguments, or read one per line from stdin when
none are given. Results can be exported to .xlsx or .json and saved to the
session archive.`,
		Example: `  bomscan match bom.xlsx RC0603FR-0710KL LM358DR
  scanner-feed | bomscan match bom.xlsx --range B2:F40 --map target=D
  bomscan match bom.xlsx --export results.xlsx --save --name "line 3" < codes.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig(cmd.Context())
			logger := getLogger(cmd.Context())
			w := cmd.OutOrStdout()

			b, err := openSession(args[0], cfg, logger, nil)
			if err != nil {
				return err
			}
			defer b.Session.Close()

			if err := b.selectRange(cfg.Range); err != nil {
				return err
			}
			m, err := b.confirmMapping(cfg)
			if err != nil {
				return err
			}
			rng, _ := b.Session.Range()
			_, _ = fmt.Fprintf(w, "Sheet %q, range %s\n", b.SheetName, cellref.FormatRange(rng))
			renderMapping(w, m, b.Session.Headers(), rng.StartCol)

			values := args[1:]
			if len(values) == 0 {
				if values, err = readValues(cmd.InOrStdin()); err != nil {
					return err
				}
			}
			for _, v := range values {
				b.Session.Scan(v, models.ScanDetails{Format: format})
			}

			l := b.Session.Ledger()
			now := time.Now()
			summary := l.Summary(now)
			renderResults(w, l.ExportRows(), rng.StartRow)
			renderSummary(w, summary)

			if exportPath != "" {
				if err := exportResults(exportPath, l.ExportRows(), summary, rng.StartRow, now); err != nil {
					return fmt.Errorf("export failed: %w", err)
				}
				_, _ = fmt.Fprintf(w, "Exported to %s\n", exportPath)
			}

			if save {
				if name == "" {
					name = fmt.Sprintf("%s %s", b.BookName, now.Format(time.DateTime))
				}
				id, err := saveSession(cmd.Context(), cfg.Archive.Path, name, summary, l.ExportRows())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(w, "Saved session %s\n", id)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&exportPath, "export", "e", "", "Write results to a .xlsx or .json file")
	cmd.Flags().BoolVar(&save, "save", false, "Save the session to the archive")
	cmd.Flags().StringVar(&name, "name", "", "Archive session name (default: book and time)")
	cmd.Flags().StringVar(&format, "format", "", "Barcode format recorded with each scan")
	return cmd
}

// readValues returns the non-blank lines of r.
func readValues(r io.Reader) ([]string, error) {
	var values []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			values = append(values, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading values: %w", err)
	}
	return values, nil
}

func exportResults(path string, rows []models.ScanRecord, summary models.Summary, firstRow int, now time.Time) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := output.WriteResultsXLSX(f, rows, summary, firstRow); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	case ".json":
		if rows == nil {
			rows = []models.ScanRecord{}
		}
		data, err := output.ToJSON(output.Export{ExportedAt: now, Results: rows, Summary: summary}, true)
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0644)
	default:
		return fmt.Errorf("unsupported export format %q (use .xlsx or .json)", filepath.Ext(path))
	}
}

func saveSession(ctx context.Context, path, name string, summary models.Summary, rows []models.ScanRecord) (string, error) {
	store, err := archive.OpenMigrated(ctx, path)
	if err != nil {
		return "", err
	}
	defer store.Close()

	id, err := store.SaveSession(ctx, name, summary, rows)
	if err != nil {
		return "", fmt.Errorf("archive failed: %w", err)
	}
	return id, nil
}
