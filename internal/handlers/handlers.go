// SPDX-License-Identifier: MPL-2.0

// Package handlers implements the emulator's built-in commands and installs
// them, together with the simulated stubs and the meta commands, into a
// registry.
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/muesli/reflow/padding"

	"github.com/vosemu/vosemu/internal/batch"
	"github.com/vosemu/vosemu/internal/issue"
	"github.com/vosemu/vosemu/internal/registry"
	"github.com/vosemu/vosemu/internal/session"
)

const okPrefix = "[OK] "

type (
	// Builtins carries the collaborators the built-in commands need.
	Builtins struct {
		Registry *registry.Registry
		Aliases  *registry.AliasTable
		Batches  *batch.Store
		Host     Host
		// StateDir is reported by show state_dir.
		StateDir string
		// PasswdPath is read by list_users.
		PasswdPath string
		Now        func() time.Time
	}

	command struct {
		name string
		run  registry.Handler
		help string
	}
)

// DefaultAliases are installed before any configured aliases.
func DefaultAliases() []registry.Alias {
	return []registry.Alias{
		{Pattern: "ls", Target: "list"},
		{Pattern: "ll", Target: "list"},
		{Pattern: "quit", Target: "exit"},
		{Pattern: "q", Target: "exit"},
		{Pattern: "show commands report", Target: "show commands status"},
	}
}

// Install registers every built-in command, the meta commands and the
// simulated stubs. Stub names that collide with a real command or an alias
// pattern are skipped.
func (b *Builtins) Install() error {
	if b.Host == nil {
		b.Host = DefaultHost()
	}
	if b.Now == nil {
		b.Now = time.Now
	}
	if b.PasswdPath == "" {
		b.PasswdPath = "/etc/passwd"
	}
	if b.Aliases == nil {
		b.Aliases = registry.NewAliasTable()
	}

	groups := [][]command{
		b.fileCommands(),
		b.displayCommands(),
		b.settingsCommands(),
		b.systemCommands(),
		b.locateCommands(),
		b.batchCommands(),
		b.metaCommands(),
	}
	for _, g := range groups {
		for _, c := range g {
			if err := b.Registry.Register(c.name, c.run, c.help); err != nil {
				return err
			}
		}
	}

	for _, name := range StubCommands {
		if _, taken := b.Registry.Lookup(name); taken || b.isAlias(name) {
			continue
		}
		if err := b.Registry.RegisterStub(name); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builtins) isAlias(name string) bool {
	for _, a := range b.Aliases.All() {
		if strings.EqualFold(a.Pattern, name) {
			return true
		}
	}
	return false
}

func ok(msg string) string { return okPrefix + msg }

// exactArgs wraps run so that it only sees exactly n arguments; any other
// count is a usage error.
func exactArgs(n int, usage string, run registry.Handler) registry.Handler {
	return func(ctx context.Context, sess *session.Session, args []string) (string, error) {
		if len(args) != n {
			return "", issue.Usagef("%s", usage)
		}
		return run(ctx, sess, args)
	}
}

// maxArgs is exactArgs for commands with optional trailing arguments.
func maxArgs(n int, usage string, run registry.Handler) registry.Handler {
	return func(ctx context.Context, sess *session.Session, args []string) (string, error) {
		if len(args) > n {
			return "", issue.Usagef("%s", usage)
		}
		return run(ctx, sess, args)
	}
}

// formatTable renders rows under headers in left-aligned columns separated
// by two spaces, with a dashed rule as wide as the header line.
func formatTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, r := range rows {
		for i, cell := range r {
			widths[i] = max(widths[i], len([]rune(cell)))
		}
	}

	line := func(cells []string) string {
		parts := make([]string, len(cells))
		for i, c := range cells {
			parts[i] = padding.String(c, uint(widths[i]))
		}
		return strings.Join(parts, "  ")
	}

	head := line(headers)
	var sb strings.Builder
	sb.WriteString(head)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", len([]rune(head))))
	for _, r := range rows {
		sb.WriteString("\n")
		sb.WriteString(line(r))
	}
	return sb.String()
}

// formatBytes renders n with a binary unit, two decimals.
func formatBytes(n float64) string {
	for _, unit := range []string{"B", "KB", "MB", "GB", "TB"} {
		if n < 1024 {
			return fmt.Sprintf("%.2f %s", n, unit)
		}
		n /= 1024
	}
	return fmt.Sprintf("%.2f PB", n)
}
