package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var errHistoryDisabled = errors.New("history is disabled; set history.enabled in the config file")

func newHistoryCmd() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently dispatched console lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cfg.History.Enabled {
				return errHistoryDisabled
			}
			if cfg.History.Store == "memory" {
				return fmt.Errorf("history store %q does not outlive the console process", cfg.History.Store)
			}
			if !cmd.Flags().Changed("limit") {
				limit = cfg.History.Limit
			}

			h, err := openHistory(cfg)
			if err != nil {
				return err
			}
			defer h.Close()

			entries, err := h.Recent(limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "no history")
				return nil
			}
			// oldest first, like a shell
			for i := len(entries) - 1; i >= 0; i-- {
				e := entries[i]
				fmt.Fprintf(out, "%s  %-7s  %s", e.Timestamp.Local().Format(time.DateTime), e.Status, e.Line)
				if e.Source != "" {
					fmt.Fprintf(out, "  (%s)", e.Source)
				}
				fmt.Fprintln(out)
				if e.Message != "" && e.Status != "ok" {
					fmt.Fprintf(out, "    %s\n", e.Message)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of entries to show (0 for all; default from history.limit)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print entries as JSON")
	return cmd
}
