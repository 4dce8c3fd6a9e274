// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"testing"

	"github.com/vosemu/vosemu/internal/issue"
)

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	t.Run("ldflags version", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "v1.2.3"
		Commit = "abc1234"
		BuildDate = "2025-06-15T10:00:00Z"

		got := getVersionString()
		want := "v1.2.3 (commit: abc1234, built: 2025-06-15T10:00:00Z)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})

	t.Run("dev build", func(t *testing.T) {
		origVersion := Version
		t.Cleanup(func() { Version = origVersion })

		Version = "dev"
		if got := getVersionString(); got != "dev (built from source)" {
			t.Errorf("getVersionString() = %q", got)
		}
	})
}

func TestExitError(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	if got := (&ExitError{Code: 3}).Error(); got != "exit status 3" {
		t.Errorf("Error() = %q", got)
	}
	err := &ExitError{Code: 1, Err: cause}
	if err.Error() != "boom" || !errors.Is(err, cause) {
		t.Errorf("ExitError should render and unwrap its cause, got %q", err.Error())
	}
}

func TestFormatErrorForDisplay(t *testing.T) {
	t.Parallel()

	ae := issue.NewErrorContext().
		WithOperation("prepare state directory").
		WithResource("/ro/state").
		WithSuggestion("Pass --state-dir").
		Wrap(errors.New("permission denied")).
		BuildError()

	got := formatErrorForDisplay(ae, false)
	want := "failed to prepare state directory: /ro/state: permission denied\n\n  • Pass --state-dir"
	if got != want {
		t.Errorf("formatErrorForDisplay() = %q, want %q", got, want)
	}
	if got := formatErrorForDisplay(errors.New("plain"), true); got != "plain" {
		t.Errorf("formatErrorForDisplay(plain) = %q", got)
	}
}

func TestRuntimeIssue(t *testing.T) {
	t.Parallel()

	stateErr := issue.NewErrorContext().WithOperation("prepare state directory").BuildError()
	if got := runtimeIssue(stateErr); got != issue.StateDirUnavailableId {
		t.Errorf("runtimeIssue(state) = %v", got)
	}
	if got := runtimeIssue(errors.New("cue: syntax")); got != issue.ConfigLoadFailedId {
		t.Errorf("runtimeIssue(other) = %v", got)
	}
}
