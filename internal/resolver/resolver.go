// SPDX-License-Identifier: MPL-2.0

// Package resolver turns a raw command line into a registry entry plus
// arguments, or into an ambiguity or unknown-command diagnostic.
package resolver

import (
	"cmp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/vosemu/vosemu/internal/registry"
	"github.com/vosemu/vosemu/pkg/glob"
)

const (
	// MaxCandidates caps the ambiguity list.
	MaxCandidates = 20
	// MaxSuggestions caps the fuzzy suggestion list.
	MaxSuggestions = 5
	// SimilarityCutoff is the minimum similarity for a fuzzy suggestion.
	SimilarityCutoff = 0.6
)

const (
	// KindEmpty is a blank line; nothing runs.
	KindEmpty Kind = iota
	// KindResolved carries an entry and its arguments.
	KindResolved
	// KindAmbiguous carries the candidate names that share the head.
	KindAmbiguous
	// KindUnknown carries fuzzy suggestions; it may have none.
	KindUnknown
)

type (
	// Kind classifies a resolution result.
	Kind int

	// Result is the outcome of resolving one line.
	Result struct {
		Kind Kind
		// Line is the input after trimming and alias expansion.
		Line  string
		Head  string
		Entry registry.Entry
		Args  []string
		// Candidates holds ambiguity candidates or fuzzy suggestions.
		Candidates []string
		// More is set when ambiguity candidates were truncated.
		More bool
	}

	// Resolver resolves lines against a registry and alias table.
	Resolver struct {
		reg     *registry.Registry
		aliases *registry.AliasTable
	}
)

// New returns a Resolver. aliases may be nil.
func New(reg *registry.Registry, aliases *registry.AliasTable) *Resolver {
	if aliases == nil {
		aliases = registry.NewAliasTable()
	}
	return &Resolver{reg: reg, aliases: aliases}
}

// Resolve maps line to a Result.
func (r *Resolver) Resolve(line string) Result {
	line = strings.TrimSpace(line)
	if line == "" {
		return Result{Kind: KindEmpty}
	}
	if expanded, ok := r.aliases.Expand(line); ok {
		line = expanded
		if line == "" {
			return Result{Kind: KindEmpty}
		}
	}

	// A whole-line match wins over any tokenizing, so multi-word names are
	// never split.
	if e, ok := r.reg.Lookup(line); ok {
		return Result{Kind: KindResolved, Line: line, Head: line, Entry: e}
	}

	head, args := r.split(line)
	if e, ok := r.reg.Lookup(head); ok {
		return Result{Kind: KindResolved, Line: line, Head: head, Entry: e, Args: args}
	}

	if cands := r.candidates(head); len(cands) == 1 {
		e, _ := r.reg.Lookup(cands[0])
		return Result{Kind: KindResolved, Line: line, Head: head, Entry: e, Args: args}
	} else if len(cands) > 1 {
		res := Result{Kind: KindAmbiguous, Line: line, Head: head, Candidates: cands}
		if len(cands) > MaxCandidates {
			res.Candidates = cands[:MaxCandidates]
			res.More = true
		}
		return res
	}

	return Result{Kind: KindUnknown, Line: line, Head: head, Candidates: r.suggest(head)}
}

// split separates the command head from its arguments. A registered
// two-token name takes precedence over the first token alone.
func (r *Resolver) split(line string) (string, []string) {
	fields := strings.Fields(line)
	if len(fields) >= 2 {
		pair := fields[0] + " " + fields[1]
		if _, ok := r.reg.Lookup(pair); ok {
			return pair, fields[2:]
		}
	}
	return fields[0], fields[1:]
}

// candidates returns the sorted names that start with head or match it as
// a glob, ignoring case.
func (r *Resolver) candidates(head string) []string {
	lower := strings.ToLower(head)
	var m *glob.Matcher
	if glob.HasMeta(head) {
		m = glob.Compile(head)
	}
	var out []string
	for _, name := range r.reg.Names() {
		if strings.HasPrefix(strings.ToLower(name), lower) || (m != nil && m.Match(name)) {
			out = append(out, name)
		}
	}
	return out
}

type scored struct {
	name  string
	score float64
}

// suggest ranks every name by edit-distance similarity to head and returns
// the best few above SimilarityCutoff.
func (r *Resolver) suggest(head string) []string {
	var ranked []scored
	for _, name := range r.reg.Names() {
		if s := Similarity(head, name); s >= SimilarityCutoff {
			ranked = append(ranked, scored{name: name, score: s})
		}
	}
	slices.SortStableFunc(ranked, func(a, b scored) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return strings.Compare(a.name, b.name)
	})
	out := make([]string, 0, min(len(ranked), MaxSuggestions))
	for _, s := range ranked[:min(len(ranked), MaxSuggestions)] {
		out = append(out, s.name)
	}
	return out
}

// Similarity returns 1 - distance/maxLen for the lower-cased inputs, in
// [0, 1]. Two empty strings are identical.
func Similarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// Message renders the diagnostic in the legacy console format. It is empty
// for resolved and empty results.
func (res Result) Message() string {
	var sb strings.Builder
	switch res.Kind {
	case KindAmbiguous:
		sb.WriteString("Ambiguous command. Did you mean:")
		for _, c := range res.Candidates {
			sb.WriteString("\n  - " + c)
		}
		if res.More {
			sb.WriteString("\n  ... (more)")
		}
	case KindUnknown:
		if len(res.Candidates) == 0 {
			sb.WriteString("Unknown command: " + res.Line)
			sb.WriteString("\nTip: use 'commands' or try a glob like 'show *status'.")
			break
		}
		sb.WriteString("Unknown command. Closest matches:")
		for _, c := range res.Candidates {
			sb.WriteString("\n  - " + c)
		}
	}
	return sb.String()
}

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindResolved:
		return "resolved"
	case KindAmbiguous:
		return "ambiguous"
	case KindUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}
