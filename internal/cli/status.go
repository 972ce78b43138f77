package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/soyeahso/gacc/internal/config"
	"github.com/soyeahso/gacc/internal/version"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show gacc paths, configuration summary and module load results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "gacc %s (commit %s)\n\n", version.Version, version.Commit)

			// Show paths
			commandsDir := paths.CommandsDir(cfg)
			fmt.Fprintf(out, "Config:   %s", paths.Config)
			if _, err := os.Stat(paths.Config); os.IsNotExist(err) {
				fmt.Fprint(out, " (not found, using defaults)")
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Commands: %s (pattern %s)\n", commandsDir, cfg.Commands.Pattern)
			fmt.Fprintf(out, "Data:     %s\n", paths.Data)
			fmt.Fprintln(out)

			fmt.Fprintf(out, "Console:  split=%s collision=%s builtins=%v\n",
				cfg.Console.SplitMode, cfg.Commands.Collision, cfg.Console.BuiltinsEnabled())

			if cfg.History.Enabled {
				fmt.Fprintf(out, "History:  store=%s\n", cfg.History.Store)
			} else {
				fmt.Fprintln(out, "History:  (disabled)")
			}

			if cfg.Gateway.Enabled {
				fmt.Fprintf(out, "Gateway:  port=%d bind=%s\n", cfg.Gateway.Port, cfg.Gateway.Bind)
			} else {
				fmt.Fprintln(out, "Gateway:  (disabled)")
			}

			if cfg.IRC != nil {
				irc := cfg.IRC
				fmt.Fprintf(out, "IRC:      server=%s nick=%s channels=%s owner=%s tls=%v\n",
					irc.Server, irc.Nick, strings.Join(irc.Channels, ","), irc.Owner, irc.UseTLS)
			} else {
				fmt.Fprintln(out, "IRC:      (not configured)")
			}

			// Modules
			con, closeHistory, err := openConsole(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeHistory()
			if rep := con.LastReport(); rep != nil {
				fmt.Fprintf(out, "\nModules:  %d loaded, %d commands, %d error(s) in %s\n",
					len(rep.Modules), con.Registry().Len(), len(rep.Errors), rep.Duration.Round(time.Microsecond))
			}

			// Validation
			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Fprintf(out, "\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Fprintf(out, "  - %s: %s\n", issue.Path, issue.Message)
				}
			}

			return nil
		},
	}

	return cmd
}
