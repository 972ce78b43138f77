package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// commandInfo is the JSON form of one registered command.
type commandInfo struct {
	Name   string `json:"name"`
	Usage  string `json:"usage,omitempty"`
	Module string `json:"module"`
}

func newCommandsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "commands",
		Short: "Load the module directory and list the registered commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			con, closeHistory, err := openConsole(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeHistory()

			out := cmd.OutOrStdout()
			if asJSON {
				descs := con.Registry().Descriptors()
				infos := make([]commandInfo, 0, len(descs))
				for _, d := range descs {
					infos = append(infos, commandInfo{Name: d.Name, Usage: d.Usage, Module: d.Module})
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}

			fmt.Fprint(out, con.CommandList())
			if rep := con.LastReport(); rep != nil && len(rep.Errors) > 0 {
				fmt.Fprintf(out, "\n%d module error(s):\n", len(rep.Errors))
				for _, e := range rep.Errors {
					fmt.Fprintf(out, "  %v\n", e)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print commands as JSON")
	return cmd
}
