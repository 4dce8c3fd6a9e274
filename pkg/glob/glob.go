// SPDX-License-Identifier: MPL-2.0

// Package glob matches names against shell-style patterns ('*', '?' and
// bracket classes), ignoring case.
package glob

import (
	"regexp"
	"strings"

	"mvdan.cc/sh/v3/pattern"
)

// Matcher is a compiled case-insensitive pattern.
type Matcher struct {
	raw string
	re  *regexp.Regexp
}

// Compile compiles pat. A pattern the shell grammar rejects (an unclosed
// bracket, for example) still yields a Matcher that compares literally.
func Compile(pat string) *Matcher {
	m := &Matcher{raw: pat}
	expr, err := pattern.Regexp(pat, pattern.EntireString|pattern.NoGlobCase)
	if err != nil {
		return m
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return m
	}
	m.re = re
	return m
}

// Match reports whether name matches the pattern.
func (m *Matcher) Match(name string) bool {
	if m.re == nil {
		return strings.EqualFold(m.raw, name)
	}
	return m.re.MatchString(name)
}

// String returns the source pattern.
func (m *Matcher) String() string { return m.raw }

// Match reports whether name matches pat, ignoring case.
func Match(pat, name string) bool {
	return Compile(pat).Match(name)
}

// HasMeta reports whether pat contains any glob metacharacters.
func HasMeta(pat string) bool {
	return pattern.HasMeta(pat, 0)
}

// Any reports whether name matches at least one of the matchers.
func Any(matchers []*Matcher, name string) bool {
	for _, m := range matchers {
		if m.Match(name) {
			return true
		}
	}
	return false
}

// CompileAll compiles every pattern in pats.
func CompileAll(pats []string) []*Matcher {
	out := make([]*Matcher, 0, len(pats))
	for _, p := range pats {
		out = append(out, Compile(p))
	}
	return out
}
