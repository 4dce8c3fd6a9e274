// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"cmp"
	"slices"
	"strings"
)

type (
	// Alias rewrites input that starts with Pattern into Target.
	Alias struct {
		Pattern string
		Target  string
	}

	// AliasTable holds aliases ordered longest pattern first.
	AliasTable struct {
		aliases []Alias
	}
)

// NewAliasTable builds a table from aliases. Later entries replace earlier
// ones with the same pattern (ignoring case).
func NewAliasTable(aliases ...Alias) *AliasTable {
	t := &AliasTable{}
	for _, a := range aliases {
		t.Set(a.Pattern, a.Target)
	}
	return t
}

// Set adds or replaces the alias for pattern. Blank patterns are ignored.
func (t *AliasTable) Set(pattern, target string) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return
	}
	if i := slices.IndexFunc(t.aliases, func(a Alias) bool { return strings.EqualFold(a.Pattern, pattern) }); i >= 0 {
		t.aliases[i].Target = target
		return
	}
	t.aliases = append(t.aliases, Alias{Pattern: pattern, Target: target})
	slices.SortStableFunc(t.aliases, func(a, b Alias) int {
		return cmp.Compare(len(b.Pattern), len(a.Pattern))
	})
}

// Expand applies the longest alias matching line: the pattern must equal the
// whole line or be followed by a space. At most one rewrite is made.
func (t *AliasTable) Expand(line string) (string, bool) {
	for _, a := range t.aliases {
		n := len(a.Pattern)
		if len(line) < n || !strings.EqualFold(line[:n], a.Pattern) {
			continue
		}
		if len(line) == n || line[n] == ' ' {
			return strings.TrimSpace(a.Target + line[n:]), true
		}
	}
	return line, false
}

// All returns the aliases ordered by pattern.
func (t *AliasTable) All() []Alias {
	out := slices.Clone(t.aliases)
	slices.SortFunc(out, func(a, b Alias) int { return strings.Compare(a.Pattern, b.Pattern) })
	return out
}

// Len returns the number of aliases.
func (t *AliasTable) Len() int { return len(t.aliases) }
