// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vosemu/vosemu/internal/config"
	"github.com/vosemu/vosemu/internal/session"
	"github.com/vosemu/vosemu/internal/shell"
)

var errNotTerminal = errors.New("not a terminal")

// consoleSize reports the size of the local terminal.
type consoleSize struct {
	f *os.File
}

func (c consoleSize) Size() (cols, lines int, err error) {
	if c.f == nil || !term.IsTerminal(int(c.f.Fd())) {
		return 0, 0, errNotTerminal
	}
	return term.GetSize(int(c.f.Fd()))
}

func newShellCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive console",
		Long: `Start the interactive console.

Lines are read from standard input and dispatched until end of input or
until the exit command (aliases: quit, q) is entered.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := app.Runtime(cmd.Context())
			if err != nil {
				return app.fail(err, runtimeIssue(err))
			}

			var ts session.TerminalSizer
			if f, ok := app.stdout.(*os.File); ok {
				ts = consoleSize{f: f}
			}
			sh := &shell.Shell{
				Dispatcher: rt.Dispatcher,
				Session:    rt.NewSession(ts),
				Editor:     shell.NewPlainEditor(app.stdin, app.stdout),
				Out:        app.stdout,
				Styles:     consoleStyles(app, rt),
			}
			return sh.Run(cmd.Context())
		},
	}
}

// consoleStyles builds the console styles for stdout. The renderer detects
// the colour profile; ui.color_scheme only overrides the background guess.
func consoleStyles(app *App, rt *Runtime) shell.Styles {
	r := lipgloss.NewRenderer(app.stdout)
	switch rt.Config.UI.ColorScheme {
	case config.ColorSchemeDark:
		r.SetHasDarkBackground(true)
	case config.ColorSchemeLight:
		r.SetHasDarkBackground(false)
	}
	return shell.DefaultStyles(r)
}
