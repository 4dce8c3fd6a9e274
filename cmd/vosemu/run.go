// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newRunCommand(app *App) *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run <line...>",
		Short: "Run a single command line",
		Long: `Run a single command line and exit.

The arguments are joined with spaces and resolved exactly as the console
would resolve them. The exit status is 1 when the line is empty, unknown,
ambiguous or the command reports an error.`,
		Example: `  vosemu run display_current_dir
  vosemu run create_file ">Sales>Report.txt"
  vosemu run batch display_line hello -queue nightly`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := app.Runtime(cmd.Context())
			if err != nil {
				return app.fail(err, runtimeIssue(err))
			}

			sess := rt.NewSession(nil)
			out := rt.Dispatcher.Dispatch(cmd.Context(), sess, strings.Join(args, " "))
			rt.Logger.Debug("run", "outcome", out.String())
			if !out.Failed() {
				if text := out.Text(); text != "" {
					_, _ = fmt.Fprintln(app.stdout, text)
				}
				return nil
			}

			if text := out.Text(); text != "" {
				_, _ = fmt.Fprintln(app.stderr, text)
			}
			if id := outcomeIssue(out); id != 0 {
				app.renderIssue(id, rt.Config.UI.ColorScheme)
			}
			return &ExitError{Code: 1}
		},
	}
	// Everything after the first word belongs to the emulated command line.
	runCmd.Flags().SetInterspersed(false)
	return runCmd
}
