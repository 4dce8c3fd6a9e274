// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vosemu/vosemu/internal/registry"
)

func newCommandsCommand(app *App) *cobra.Command {
	var stubsOnly bool

	commandsCmd := &cobra.Command{
		Use:   "commands",
		Short: "List every registered command",
		Long: `List every canonical command name in lexicographic order.

Simulated commands are registered so that they resolve, but only report that
they are not emulated; they are marked in the listing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := app.Runtime(cmd.Context())
			if err != nil {
				return app.fail(err, runtimeIssue(err))
			}

			entries := rt.Registry.All()
			if stubsOnly {
				entries = rt.Registry.Stubs()
			}
			for _, e := range entries {
				line := CmdStyle.Render(e.Name)
				if e.Kind == registry.KindStub {
					line += " " + SubtitleStyle.Render("(simulated)")
				}
				_, _ = fmt.Fprintln(app.stdout, line)
			}
			_, _ = fmt.Fprintf(app.stdout, "\n%d commands, %d implemented, %d simulated\n",
				rt.Registry.Len(), len(rt.Registry.Implemented()), len(rt.Registry.Stubs()))
			return nil
		},
	}
	commandsCmd.Flags().BoolVar(&stubsOnly, "simulated", false, "list only simulated commands")
	return commandsCmd
}
