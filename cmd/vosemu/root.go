// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/vosemu/vosemu/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the vosemu command tree over app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vosemu",
		Short: "A sandboxed emulator of a legacy VOS command shell",
		Long: TitleStyle.Render("vosemu") + SubtitleStyle.Render(" - A sandboxed emulator of a legacy VOS command shell") + `

vosemu resolves abbreviated, aliased or globbed command names the way the
legacy console did and runs them against a sandboxed filesystem kept under
a state directory. Batch submissions are persisted as job records in queue
directories; nothing is ever executed on the host.

` + SubtitleStyle.Render("Examples:") + `
  vosemu shell                        Start the interactive console
  vosemu run display_current_dir      Run a single command line
  vosemu run "dis_cur_dir"            Abbreviations resolve by prefix
  vosemu batch list                   Show queued batch requests
  vosemu serve --port 2222            Serve consoles over SSH`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.flags.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/vosemu/config.cue)")
	rootCmd.PersistentFlags().StringVar(&app.flags.stateDir, "state-dir", "", "state directory holding the sandbox and batch queues")

	rootCmd.AddCommand(
		newShellCommand(app),
		newRunCommand(app),
		newCommandsCommand(app),
		newBatchCommand(app),
		newConfigCommand(app),
		newServeCommand(app),
	)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	rootCmd := NewRootCommand(app)
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(errorHandler),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// errorHandler prints err through fang's default handler unless it is a bare
// ExitError whose cause was already reported.
func errorHandler(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
