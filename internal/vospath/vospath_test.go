// SPDX-License-Identifier: MPL-2.0

package vospath

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/vosemu/vosemu/internal/testutil"
)

func newResolver(t *testing.T) (*Resolver, string) {
	t.Helper()
	base := t.TempDir()
	root := filepath.Join(base, "filesystem")
	testutil.MustMkdirAll(t, root, 0o755)
	r, err := New(root)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return r, base
}

func TestResolve(t *testing.T) {
	t.Parallel()

	r, _ := newResolver(t)
	root := r.Root()
	hostAbs := filepath.Join(string(filepath.Separator), "etc", "hosts")

	tests := []struct {
		name string
		cwd  string
		in   string
		want string
	}{
		{"empty at root", "", "", root},
		{"empty in subdir", filepath.Join("Sales", "Jones"), "", filepath.Join(root, "Sales", "Jones")},
		{"host absolute passes through", "Sales", hostAbs, hostAbs},
		{"sandbox absolute ignores cwd", "Sales", ">Admin>Logs", filepath.Join(root, "Admin", "Logs")},
		{"sandbox absolute drops empty segments", "", ">>A>>B>", filepath.Join(root, "A", "B")},
		{"lone separator is root", "Sales", ">", root},
		{"relative legacy appends to cwd", "Sales", "Jones>report", filepath.Join(root, "Sales", "Jones", "report")},
		{"plain name appends to cwd", "Sales", "notes.txt", filepath.Join(root, "Sales", "notes.txt")},
		{"plain name at root", "", "notes.txt", filepath.Join(root, "notes.txt")},
		{"surrounding space trimmed", "", "  notes.txt ", filepath.Join(root, "notes.txt")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := r.Resolve(tt.cwd, tt.in); got != tt.want {
				t.Errorf("Resolve(%q, %q) = %q, want %q", tt.cwd, tt.in, got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cwd  string
		want string
	}{
		{"", ">"},
		{"Sales", ">Sales"},
		{filepath.Join("Sales", "Jones"), ">Sales>Jones"},
	}
	for _, tt := range tests {
		if got := Format(tt.cwd); got != tt.want {
			t.Errorf("Format(%q) = %q, want %q", tt.cwd, got, tt.want)
		}
	}
}

func TestFormatResolveRoundTrip(t *testing.T) {
	t.Parallel()

	r, _ := newResolver(t)
	dirs := []string{
		"",
		"a",
		filepath.Join("a", "b"),
		filepath.Join("Sales", "Jones", "2024"),
	}

	for _, d := range dirs {
		// The working directory must not influence a sandbox-absolute name.
		for _, cwd := range []string{"", "elsewhere"} {
			got := r.Resolve(cwd, Format(d))
			if want := r.Dir(d); got != want {
				t.Errorf("Resolve(%q, Format(%q)) = %q, want %q", cwd, d, got, want)
			}
		}
	}
}

func TestChangeDir(t *testing.T) {
	t.Parallel()

	r, base := newResolver(t)
	testutil.MustMkdirAll(t, filepath.Join(r.Root(), "Sales", "Jones"), 0o755)
	testutil.MustWriteFile(t, filepath.Join(r.Root(), "plain.txt"), "x")
	testutil.MustMkdirAll(t, filepath.Join(base, "outside"), 0o755)

	cwd, err := r.ChangeDir("", ">Sales>Jones")
	if err != nil {
		t.Fatalf("ChangeDir(>Sales>Jones) error: %v", err)
	}
	if want := filepath.Join("Sales", "Jones"); cwd != want {
		t.Fatalf("ChangeDir() = %q, want %q", cwd, want)
	}
	if Format(cwd) != ">Sales>Jones" {
		t.Errorf("Format(cwd) = %q", Format(cwd))
	}

	cwd, err = r.ChangeDir(cwd, ">")
	if err != nil || cwd != "" {
		t.Errorf("ChangeDir(>) = %q, %v; want root", cwd, err)
	}

	t.Run("missing directory", func(t *testing.T) {
		t.Parallel()
		got, err := r.ChangeDir("Sales", "nope")
		if !errors.Is(err, ErrNotDirectory) {
			t.Fatalf("error = %v, want ErrNotDirectory", err)
		}
		if got != "Sales" {
			t.Errorf("cwd changed to %q on failure", got)
		}
	})

	t.Run("file is not a directory", func(t *testing.T) {
		t.Parallel()
		if _, err := r.ChangeDir("", "plain.txt"); !errors.Is(err, ErrNotDirectory) {
			t.Errorf("error = %v, want ErrNotDirectory", err)
		}
	})

	t.Run("escape via parent segments", func(t *testing.T) {
		t.Parallel()
		got, err := r.ChangeDir("Sales", ">..>outside")
		if !errors.Is(err, ErrOutsideSandbox) {
			t.Fatalf("error = %v, want ErrOutsideSandbox", err)
		}
		if got != "Sales" {
			t.Errorf("cwd changed to %q on containment failure", got)
		}
	})

	t.Run("escape via host absolute path", func(t *testing.T) {
		t.Parallel()
		if _, err := r.ChangeDir("", filepath.Join(base, "outside")); !errors.Is(err, ErrOutsideSandbox) {
			t.Errorf("error = %v, want ErrOutsideSandbox", err)
		}
	})

	t.Run("separator inside a host directory name", func(t *testing.T) {
		t.Parallel()
		odd := filepath.Join(r.Root(), "a>b")
		testutil.MustMkdirAll(t, odd, 0o755)
		got, err := r.ChangeDir("Sales", odd)
		if !errors.Is(err, ErrUnrepresentable) {
			t.Fatalf("error = %v, want ErrUnrepresentable", err)
		}
		if got != "Sales" {
			t.Errorf("cwd changed to %q on failure", got)
		}
	})

	t.Run("sibling with shared prefix", func(t *testing.T) {
		t.Parallel()
		testutil.MustMkdirAll(t, r.Root()+"2", 0o755)
		if _, err := r.ChangeDir("", r.Root()+"2"); !errors.Is(err, ErrOutsideSandbox) {
			t.Errorf("error = %v, want ErrOutsideSandbox", err)
		}
	})
}

// Only ChangeDir enforces containment. Resolve hands back host-absolute and
// parent-escaping paths as-is so file operations can reach them.
func TestResolveDoesNotEnforceContainment(t *testing.T) {
	t.Parallel()

	r, base := newResolver(t)
	got := r.Resolve("", ">..>outside")
	if want := filepath.Join(base, "outside"); got != want {
		t.Errorf("Resolve(>..>outside) = %q, want %q", got, want)
	}
	if r.Contains(got) {
		t.Error("Contains() should report the escaped path as outside")
	}
}
