package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"autosort/internal/store"
)

func historyCmd(flags *rootFlags) *cobra.Command {
	var (
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently sorted files from the journal",
		Long:  "History reads the move journal directly; the tracking session does not need to be running.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}

			st, err := store.New(cfg.DBPath())
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer st.Close()

			records, err := st.Recent(limit)
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, records)
			}

			rows := make([][]string, 0, len(records))
			for _, r := range records {
				detail := r.Dest
				if r.Outcome == "failed" {
					detail = r.ErrorKind
				}
				rows = append(rows, []string{
					r.Timestamp.Local().Format(time.DateTime),
					r.Outcome,
					r.Source,
					detail,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"time", "outcome", "source", "destination"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
