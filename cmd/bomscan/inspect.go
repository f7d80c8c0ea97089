package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/ukaji3/bomscan-go/pkg/bomscan"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/cellref"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/mapping"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/output"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/parser"
)

func newInspectCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect <book.xlsx>",
		Short: "Show sheets, detected BOM ranges and the proposed column mapping",
		Example: `  bomscan inspect bom.xlsx
  bomscan inspect bom.xlsx --sheet Parts --range B3:H120`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig(cmd.Context())
			w := cmd.OutOrStdout()

			wb, err := bomscan.Load(args[0], bomscan.DefaultOptions())
			if err != nil {
				return err
			}
			if asJSON {
				data, err := output.ToJSON(wb, true)
				if err != nil {
					return fmt.Errorf("serialization failed: %w", err)
				}
				_, err = fmt.Fprintln(w, string(data))
				return err
			}

			_, _ = fmt.Fprintf(w, "Workbook: %s\n", wb.BookName)
			renderSheets(w, wb)

			name, sheet, ok := wb.Sheet(cfg.Sheet)
			if !ok {
				return fmt.Errorf("sheet %q: %w", cfg.Sheet, bomscan.ErrNoData)
			}
			rng, ok := sheet.SuggestedRange()
			if cfg.Range != "" {
				if rng, err = cellref.ParseRange(strings.ToUpper(cfg.Range)); err != nil {
					return err
				}
				ok = true
			}
			if !ok {
				_, _ = fmt.Fprintf(w, "\nNo BOM range detected on %q; pass --range.\n", name)
				return nil
			}

			data := parser.SliceRange(sheet.Grid, rng)
			headers := data.Header()
			proposed := mapping.AutoDetect(headers)
			_, _ = fmt.Fprintf(w, "\nSheet %q, range %s (%d data rows)\n", name, cellref.FormatRange(rng), max(data.Rows()-1, 0))
			renderMapping(w, proposed, headers, rng.StartCol)
			if !mapping.Validate(proposed) {
				_, _ = fmt.Fprintln(w, "No target column detected; pass --map target=COLUMN.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the loaded workbook as JSON")
	return cmd
}
