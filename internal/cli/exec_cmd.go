package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/soyeahso/gacc/internal/console"
	"github.com/soyeahso/gacc/internal/dispatch"
)

func newExecCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exec <line>...",
		Short: "Load modules, dispatch one line, and exit",
		Long: "exec joins its arguments with single spaces and submits the result as one console line.\n" +
			"It exits non-zero when the command is unknown or fails.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			con, closeHistory, err := openConsole(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeHistory()

			out := cmd.OutOrStdout()
			detach := con.Attach(func(o console.Output) {
				fmt.Fprintln(out, console.Render(o))
			})
			defer detach()

			line := strings.Join(args, " ")
			res := con.Submit(console.WithSource(cmd.Context(), "exec"), line)
			switch res.Status {
			case dispatch.StatusOK, dispatch.StatusEmpty:
				return nil
			case dispatch.StatusUnknown:
				return fmt.Errorf("unknown command %q", res.Command)
			default:
				return fmt.Errorf("command %q failed", res.Command)
			}
		},
	}
}
