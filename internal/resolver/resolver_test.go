// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/vosemu/vosemu/internal/registry"
	"github.com/vosemu/vosemu/internal/session"
)

func noop(context.Context, *session.Session, []string) (string, error) { return "", nil }

func newRegistry(t *testing.T, names ...string) *registry.Registry {
	t.Helper()
	r := registry.New()
	for _, n := range names {
		if err := r.Register(n, noop, ""); err != nil {
			t.Fatalf("Register(%q) error: %v", n, err)
		}
	}
	return r
}

func TestResolve_Empty(t *testing.T) {
	t.Parallel()

	res := New(newRegistry(t, "list"), nil)
	for _, line := range []string{"", "   ", "\t"} {
		if got := res.Resolve(line); got.Kind != KindEmpty {
			t.Errorf("Resolve(%q).Kind = %v, want empty", line, got.Kind)
		}
	}
}

func TestResolve_EveryNameAnyCase(t *testing.T) {
	t.Parallel()

	names := []string{"list", "create_file", "show commands status", "show status", "show system", "display_file"}
	res := New(newRegistry(t, names...), nil)

	for _, n := range names {
		for _, variant := range []string{n, strings.ToUpper(n), "  " + n + "  "} {
			got := res.Resolve(variant)
			if got.Kind != KindResolved || got.Entry.Name != n || len(got.Args) != 0 {
				t.Errorf("Resolve(%q) = %v %q %v, want resolved %q with no args", variant, got.Kind, got.Entry.Name, got.Args, n)
			}
		}
	}
}

func TestResolve_FullLineBeatsSplit(t *testing.T) {
	t.Parallel()

	// "show" alone prefixes several names, "show commands" is registered as
	// well, but the whole line names a three-word command.
	res := New(newRegistry(t, "show commands", "show commands status", "show status"), nil)
	got := res.Resolve("Show Commands Status")
	if got.Kind != KindResolved || got.Entry.Name != "show commands status" || len(got.Args) != 0 {
		t.Fatalf("Resolve() = %v %q %v", got.Kind, got.Entry.Name, got.Args)
	}
}

func TestResolve_TwoTokenHead(t *testing.T) {
	t.Parallel()

	res := New(newRegistry(t, "show status", "show system", "display_line"), nil)

	got := res.Resolve("show status verbose now")
	if got.Kind != KindResolved || got.Entry.Name != "show status" {
		t.Fatalf("Resolve() = %v %q", got.Kind, got.Entry.Name)
	}
	if !slices.Equal(got.Args, []string{"verbose", "now"}) {
		t.Errorf("Args = %v", got.Args)
	}

	got = res.Resolve("display_line hello   world")
	if got.Entry.Name != "display_line" || !slices.Equal(got.Args, []string{"hello", "world"}) {
		t.Errorf("Resolve(display_line ...) = %q %v", got.Entry.Name, got.Args)
	}
}

func TestResolve_Ambiguous(t *testing.T) {
	t.Parallel()

	res := New(newRegistry(t, "show system", "show status", "list"), nil)
	got := res.Resolve("show s")
	if got.Kind != KindAmbiguous {
		t.Fatalf("Resolve(show s).Kind = %v, want ambiguous", got.Kind)
	}
	if want := []string{"show status", "show system"}; !slices.Equal(got.Candidates, want) {
		t.Errorf("Candidates = %v, want %v", got.Candidates, want)
	}
	if got.More {
		t.Error("More should be false with two candidates")
	}
	want := "Ambiguous command. Did you mean:\n  - show status\n  - show system"
	if got.Message() != want {
		t.Errorf("Message() = %q, want %q", got.Message(), want)
	}
}

func TestResolve_AmbiguousTruncated(t *testing.T) {
	t.Parallel()

	var names []string
	for i := range MaxCandidates + 5 {
		names = append(names, fmt.Sprintf("display_item_%02d", i))
	}
	res := New(newRegistry(t, names...), nil)

	got := res.Resolve("display_item")
	if got.Kind != KindAmbiguous || len(got.Candidates) != MaxCandidates || !got.More {
		t.Fatalf("Resolve() = %v, %d candidates, more=%v", got.Kind, len(got.Candidates), got.More)
	}
	if got.Candidates[0] != "display_item_00" {
		t.Errorf("first candidate = %q, want sorted order", got.Candidates[0])
	}
	if !strings.HasSuffix(got.Message(), "\n  ... (more)") {
		t.Errorf("Message() should end with the truncation marker: %q", got.Message())
	}

	exact := New(newRegistry(t, names[:MaxCandidates]...), nil).Resolve("display_item")
	if exact.More {
		t.Error("More should be false with exactly MaxCandidates candidates")
	}
}

func TestResolve_UniquePrefixAndGlob(t *testing.T) {
	t.Parallel()

	res := New(newRegistry(t, "display_file", "display_dir_status", "show commands status", "list"), nil)

	tests := []struct {
		line string
		want string
		args []string
	}{
		{"display_f >Sales>a.txt", "display_file", []string{">Sales>a.txt"}},
		{"LI", "list", nil},
		{"show*status", "show commands status", nil},
		{"display_?ir_status x", "display_dir_status", []string{"x"}},
	}
	for _, tt := range tests {
		got := res.Resolve(tt.line)
		if got.Kind != KindResolved || got.Entry.Name != tt.want {
			t.Errorf("Resolve(%q) = %v %q, want %q", tt.line, got.Kind, got.Entry.Name, tt.want)
			continue
		}
		if !slices.Equal(got.Args, tt.args) {
			t.Errorf("Resolve(%q).Args = %v, want %v", tt.line, got.Args, tt.args)
		}
	}
}

func TestResolve_Fuzzy(t *testing.T) {
	t.Parallel()

	res := New(newRegistry(t, "create_file", "delete_file", "display_file", "list"), nil)

	got := res.Resolve("craete_file x")
	if got.Kind != KindUnknown {
		t.Fatalf("Kind = %v, want unknown", got.Kind)
	}
	if len(got.Candidates) == 0 || got.Candidates[0] != "create_file" {
		t.Errorf("Candidates = %v, want create_file first", got.Candidates)
	}
	if len(got.Candidates) > MaxSuggestions {
		t.Errorf("len(Candidates) = %d, want <= %d", len(got.Candidates), MaxSuggestions)
	}
	if !strings.HasPrefix(got.Message(), "Unknown command. Closest matches:") {
		t.Errorf("Message() = %q", got.Message())
	}

	nothing := res.Resolve("zzzzzzzzzz")
	if nothing.Kind != KindUnknown || len(nothing.Candidates) != 0 {
		t.Errorf("Resolve(zzzzzzzzzz) = %v %v, want unknown with no suggestions", nothing.Kind, nothing.Candidates)
	}
	if !strings.HasPrefix(nothing.Message(), "Unknown command: zzzzzzzzzz") {
		t.Errorf("Message() = %q", nothing.Message())
	}
}

func TestResolve_Alias(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t, "list", "show commands status", "exit")
	aliases := registry.NewAliasTable(
		registry.Alias{Pattern: "ls", Target: "list"},
		registry.Alias{Pattern: "show commands report", Target: "show commands status"},
		registry.Alias{Pattern: "bye", Target: "   "},
	)
	res := New(reg, aliases)

	got := res.Resolve("LS >Sales")
	if got.Entry.Name != "list" || !slices.Equal(got.Args, []string{">Sales"}) {
		t.Errorf("Resolve(LS >Sales) = %q %v", got.Entry.Name, got.Args)
	}
	if got.Line != "list >Sales" {
		t.Errorf("Line = %q, want expanded line", got.Line)
	}

	if got := res.Resolve("show commands report"); got.Entry.Name != "show commands status" {
		t.Errorf("Resolve(show commands report) = %q", got.Entry.Name)
	}
	if got := res.Resolve("bye"); got.Kind != KindEmpty {
		t.Errorf("alias to blank = %v, want empty", got.Kind)
	}
}

func TestSimilarity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want float64
	}{
		{"", "", 1},
		{"list", "LIST", 1},
		{"abcd", "abce", 0.75},
		{"abc", "xyz", 0},
	}
	for _, tt := range tests {
		if got := Similarity(tt.a, tt.b); got != tt.want {
			t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
