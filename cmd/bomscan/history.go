package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ukaji3/bomscan-go/internal/archive"
)

func newHistoryCommand() *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "history [session-id]",
		Short: "List or show archived scan sessions",
		Example: `  bomscan history
  bomscan history 6f1c2b9e-3d4a-4e59-9a1b-0c2d3e4f5a6b
  bomscan history 6f1c2b9e-3d4a-4e59-9a1b-0c2d3e4f5a6b --delete`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig(cmd.Context())
			ctx := cmd.Context()
			w := cmd.OutOrStdout()

			store, err := archive.OpenMigrated(ctx, cfg.Archive.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			if len(args) == 0 {
				if remove {
					return fmt.Errorf("--delete requires a session id")
				}
				sessions, err := store.ListSessions(ctx)
				if err != nil {
					return err
				}
				renderHistory(w, sessions)
				return nil
			}

			id := args[0]
			if remove {
				if err := store.DeleteSession(ctx, id); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(w, "Deleted session %s\n", id)
				return nil
			}

			info, err := store.GetSession(ctx, id)
			if err != nil {
				return err
			}
			records, err := store.LoadScans(ctx, id)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(w, "%s (%s)\n", info.Name, info.CreatedAt.Local().Format("2006-01-02 15:04"))
			// Archived rows are range-relative; the header is row 0.
			renderResults(w, records, 0)
			renderSummary(w, info.Summary)
			return nil
		},
	}

	cmd.Flags().BoolVar(&remove, "delete", false, "Delete the given session")
	return cmd
}
