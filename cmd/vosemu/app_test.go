// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vosemu/vosemu/internal/config"
	"github.com/vosemu/vosemu/internal/testutil"
)

type staticProvider struct {
	cfg *config.Config
	err error
}

func (p staticProvider) Load(context.Context, config.LoadOptions) (*config.Config, error) {
	if p.err != nil {
		return nil, p.err
	}
	cp := *p.cfg
	return &cp, nil
}

type testApp struct {
	*App
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestApp(t *testing.T, cfg *config.Config, stdin string) testApp {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if cfg.StateDir == config.DefaultStateDir {
		cfg.StateDir = filepath.Join(t.TempDir(), "state")
	}
	var stdout, stderr bytes.Buffer
	app := NewApp(Dependencies{
		Config: staticProvider{cfg: cfg},
		Stdin:  strings.NewReader(stdin),
		Stdout: &stdout,
		Stderr: &stderr,
	})
	return testApp{App: app, stdout: &stdout, stderr: &stderr}
}

func (a testApp) execute(t *testing.T, args ...string) error {
	t.Helper()
	root := NewRootCommand(a.App)
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SilenceErrors = true
	return root.ExecuteContext(context.Background())
}

func exitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if err != nil {
		return -1
	}
	return 0
}

func TestNewApp_Defaults(t *testing.T) {
	t.Parallel()

	app := NewApp(Dependencies{})
	if app.Config == nil {
		t.Error("Config provider should default to the file provider")
	}
	if app.stdin != os.Stdin || app.stdout != os.Stdout || app.stderr != os.Stderr {
		t.Error("streams should default to the process streams")
	}
}

func TestRuntime_Wiring(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Aliases = map[string]string{"where": "display_current_dir", "ls": "display_current_dir"}
	cfg.Batch.DefaultQueue = "nightly"
	cfg.Display.LineWrapWidth = 40
	app := newTestApp(t, cfg, "")

	rt, err := app.Runtime(context.Background())
	if err != nil {
		t.Fatalf("Runtime() error: %v", err)
	}
	for _, dir := range []string{rt.Layout.Filesystem, rt.Layout.Batches} {
		if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
			t.Errorf("layout directory %s missing: %v", dir, err)
		}
	}
	if _, ok := rt.Registry.Lookup("display_current_dir"); !ok {
		t.Error("built-in commands should be installed")
	}

	sess := rt.NewSession(nil)
	if sess.LineWrapWidth() != 40 {
		t.Errorf("LineWrapWidth() = %d, want 40", sess.LineWrapWidth())
	}

	// Configured aliases override the built-in ones.
	out := rt.Dispatcher.Dispatch(context.Background(), sess, "ls")
	if out.Name != "display_current_dir" {
		t.Errorf("ls resolved to %q", out.Name)
	}
	out = rt.Dispatcher.Dispatch(context.Background(), sess, "where")
	if out.Text() != "Current directory: >" {
		t.Errorf("where = %q", out.Text())
	}

	out = rt.Dispatcher.Dispatch(context.Background(), sess, "batch display_line hi")
	if out.Failed() || !strings.Contains(out.Output, "queue 'nightly'") {
		t.Errorf("batch should use the configured default queue, got %q", out.Text())
	}
}

func TestRuntime_StateDirFlag(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, nil, "")
	app.flags.stateDir = filepath.Join(t.TempDir(), "override")
	rt, err := app.Runtime(context.Background())
	if err != nil {
		t.Fatalf("Runtime() error: %v", err)
	}
	if rt.Config.StateDir != app.flags.stateDir {
		t.Errorf("StateDir = %q, want flag value", rt.Config.StateDir)
	}
}

func TestRuntime_StateDirUnavailable(t *testing.T) {
	t.Parallel()

	blocker := filepath.Join(t.TempDir(), "file")
	testutil.MustWriteFile(t, blocker, "x")
	cfg := config.DefaultConfig()
	cfg.StateDir = filepath.Join(blocker, "state")
	app := newTestApp(t, cfg, "")

	_, err := app.Runtime(context.Background())
	if err == nil {
		t.Fatal("Runtime() should fail when the state directory cannot be created")
	}
	if !strings.Contains(err.Error(), "failed to prepare state directory") {
		t.Errorf("error = %v", err)
	}
}

func TestRunCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{"resolved", []string{"run", "display_line", "hello", "world"}, 0, "hello world\n", ""},
		{"flags belong to the line", []string{"run", "display_line", "-queue", "x"}, 0, "-queue x\n", ""},
		{"usage error", []string{"run", "create_file"}, 1, "", "[ERR] usage: create_file <path>"},
		{"unknown", []string{"run", "zzzzzzzz"}, 1, "", "Unknown command"},
		{"ambiguous", []string{"run", "display_f"}, 1, "", "Ambiguous command"},
		{"exit", []string{"run", "exit"}, 0, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			app := newTestApp(t, nil, "")
			err := app.execute(t, tt.args...)
			if got := exitCode(err); got != tt.wantCode {
				t.Fatalf("exit code = %d (%v), want %d", got, err, tt.wantCode)
			}
			if tt.wantStdout != "" && app.stdout.String() != tt.wantStdout {
				t.Errorf("stdout = %q, want %q", app.stdout.String(), tt.wantStdout)
			}
			if !strings.Contains(app.stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want it to contain %q", app.stderr.String(), tt.wantStderr)
			}
		})
	}
}

func TestRunCommand_ConfigFailure(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	app := testApp{
		App: NewApp(Dependencies{
			Config: staticProvider{err: errors.New("bad schema")},
			Stdout: &stdout,
			Stderr: &stderr,
		}),
		stdout: &stdout,
		stderr: &stderr,
	}
	err := app.execute(t, "run", "display_current_dir")
	if exitCode(err) != 1 {
		t.Fatalf("exit code = %d, want 1", exitCode(err))
	}
	if !strings.Contains(stderr.String(), "bad schema") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestShellCommand(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, nil, "create_dir Sales\nchange_current_dir Sales\ndisplay_current_dir\nexit\ndisplay_line after\n")
	if err := app.execute(t, "shell"); err != nil {
		t.Fatalf("shell error: %v", err)
	}
	out := app.stdout.String()
	for _, want := range []string{"VOS Emulator", "vos> ", "Current directory: >Sales"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "after") {
		t.Error("lines after exit should not run")
	}
}

func TestCommandsCommand(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, nil, "")
	if err := app.execute(t, "commands", "--simulated"); err != nil {
		t.Fatalf("commands error: %v", err)
	}
	out := app.stdout.String()
	if !strings.Contains(out, "start_process (simulated)") {
		t.Errorf("missing stub in listing:\n%s", out)
	}
	if strings.Contains(out, "display_file\n") {
		t.Errorf("--simulated should hide real commands:\n%s", out)
	}
}
