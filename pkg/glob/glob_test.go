// SPDX-License-Identifier: MPL-2.0

package glob

import "testing"

func TestMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pat  string
		name string
		want bool
	}{
		{"show *status", "show commands status", true},
		{"SHOW *", "show system", true},
		{"display_?ile", "display_file", true},
		{"display_?ile", "display_files", false},
		{"report*", "Report", true},
		{"rep[ao]rt", "REPORT", true},
		{"rep[!o]rt", "report", false},
		{"report", "report_1", false},
		{"*", "", true},
		{"[unclosed", "[UNCLOSED", true},
		{"[unclosed", "unclosed", false},
		{"a.b", "axb", false},
	}

	for _, tt := range tests {
		t.Run(tt.pat+"/"+tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Match(tt.pat, tt.name); got != tt.want {
				t.Errorf("Match(%q, %q) = %v, want %v", tt.pat, tt.name, got, tt.want)
			}
		})
	}
}

func TestHasMeta(t *testing.T) {
	t.Parallel()

	if HasMeta("list") {
		t.Error("HasMeta(list) = true, want false")
	}
	if !HasMeta("li*") {
		t.Error("HasMeta(li*) = false, want true")
	}
}

func TestAny(t *testing.T) {
	t.Parallel()

	ms := CompileAll([]string{"nightly*", "report"})
	if !Any(ms, "REPORT") || !Any(ms, "nightly_build") {
		t.Error("Any() should match either pattern")
	}
	if Any(ms, "daily") {
		t.Error("Any(daily) = true, want false")
	}
}
