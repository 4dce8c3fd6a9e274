// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/vosemu/vosemu/internal/config"
	"github.com/vosemu/vosemu/internal/dispatch"
	"github.com/vosemu/vosemu/internal/issue"
	"github.com/vosemu/vosemu/internal/resolver"
)

// issueStyle picks the glamour style for scheme. Auto renders plain text
// unless w is a terminal.
func issueStyle(scheme config.ColorScheme, w io.Writer) string {
	switch scheme {
	case config.ColorSchemeDark:
		return "dark"
	case config.ColorSchemeLight:
		return "light"
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "dark"
	}
	return "notty"
}

// renderIssue writes the markdown guidance for id to the app's stderr.
func (a *App) renderIssue(id issue.Id, scheme config.ColorScheme) {
	iss := issue.Get(id)
	if iss == nil {
		return
	}
	rendered, err := iss.Render(issueStyle(scheme, a.stderr))
	if err != nil {
		return
	}
	_, _ = fmt.Fprint(a.stderr, rendered)
}

// fail reports err with its guidance and returns the ExitError RunE should
// propagate.
func (a *App) fail(err error, id issue.Id) error {
	_, _ = fmt.Fprintln(a.stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, a.flags.verbose))
	a.renderIssue(id, config.ColorSchemeAuto)
	return &ExitError{Code: 1}
}

// runtimeIssue classifies a Runtime failure.
func runtimeIssue(err error) issue.Id {
	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae.Operation == "prepare state directory" {
		return issue.StateDirUnavailableId
	}
	return issue.ConfigLoadFailedId
}

// outcomeIssue returns the guidance for a failed dispatch, or 0 when the
// legacy error text is enough.
func outcomeIssue(out dispatch.Outcome) issue.Id {
	switch out.Kind {
	case resolver.KindUnknown:
		return issue.UnknownCommandId
	case resolver.KindAmbiguous:
		return issue.AmbiguousCommandId
	case resolver.KindEmpty:
		return issue.EmptyCommandLineId
	}
	if out.Err != nil && out.Err.Kind == issue.KindContainment {
		return issue.OutsideSandboxId
	}
	return 0
}
