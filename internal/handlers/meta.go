// SPDX-License-Identifier: MPL-2.0

package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/muesli/reflow/padding"

	"github.com/vosemu/vosemu/internal/dispatch"
	"github.com/vosemu/vosemu/internal/issue"
	"github.com/vosemu/vosemu/internal/registry"
	"github.com/vosemu/vosemu/internal/resolver"
	"github.com/vosemu/vosemu/internal/session"
)

const (
	defaultColumns = 80
	// stubsPerRow is the column count of the simulated section of the report.
	stubsPerRow = 6
	// maxShortHelp bounds a help line in the report.
	maxShortHelp = 80
	stubMarker   = "*"
)

func (b *Builtins) metaCommands() []command {
	return []command{
		{"commands", exactArgs(0, "usage: commands", b.listCommands), "List all available commands; simulated ones are marked with *. Usage: commands"},
		{"help", b.help, "Show general help, or details for one command. Usage: help [name]"},
		{"exit", exit, "Leave the emulator. Usage: exit"},
		{"show commands status", b.showCommandsStatus, "Show which commands are implemented versus simulated. Usage: show commands status"},
	}
}

func terminalColumns(sess *session.Session) int {
	if term := sess.Terminal(); term != nil {
		if cols, _, err := term.Size(); err == nil && cols > 0 {
			return cols
		}
	}
	return defaultColumns
}

func (b *Builtins) listCommands(_ context.Context, sess *session.Session, _ []string) (string, error) {
	entries := b.Registry.All()
	colw := 0
	for _, e := range entries {
		colw = max(colw, len(e.Name)+len(stubMarker))
	}
	colw += 2
	perRow := max(1, terminalColumns(sess)/colw)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d commands available:", len(entries))
	for i := 0; i < len(entries); i += perRow {
		sb.WriteString("\n")
		row := entries[i:min(i+perRow, len(entries))]
		for j, e := range row {
			name := e.Name
			if !e.Implemented() {
				name += stubMarker
			}
			if j == len(row)-1 {
				sb.WriteString(name)
				continue
			}
			sb.WriteString(padding.String(name, uint(colw)))
		}
	}
	return sb.String(), nil
}

func (b *Builtins) help(_ context.Context, _ *session.Session, args []string) (string, error) {
	if len(args) == 0 {
		pairs := make([]string, 0, b.Aliases.Len())
		for _, a := range b.Aliases.All() {
			pairs = append(pairs, a.Pattern+" -> "+a.Target)
		}
		return "General help:\n" +
			"  - 'commands' to list all\n" +
			"  - 'help <name>' to see details\n" +
			"  - globs/prefixes allowed (e.g., 'show sy*')\n" +
			"  - aliases: " + strings.Join(pairs, ", "), nil
	}

	res := resolver.New(b.Registry, b.Aliases).Resolve(strings.Join(args, " "))
	if res.Kind != resolver.KindResolved {
		return "No help found (or ambiguous). Try exact name from 'commands'.", nil
	}
	detail := res.Entry.Help
	if detail == "" {
		detail = registry.StubHelp
	}
	return res.Entry.Name + "\n  " + detail, nil
}

func exit(context.Context, *session.Session, []string) (string, error) {
	return "[SIM] Bye!", dispatch.ErrExit
}

func (b *Builtins) showCommandsStatus(_ context.Context, _ *session.Session, args []string) (string, error) {
	if len(args) > 0 {
		return "", issue.Usagef("usage: show commands status")
	}
	implemented := b.Registry.Implemented()
	simulated := b.Registry.Stubs()
	total := len(implemented) + len(simulated)
	pct := 0.0
	if total > 0 {
		pct = float64(len(implemented)) / float64(total) * 100
	}

	lines := []string{
		fmt.Sprintf("VOS commands report: %d total, %d implemented, %d simulated (%.1f%% implemented)",
			total, len(implemented), len(simulated), pct),
		"",
		"Implemented commands (name - short help):",
	}
	if len(implemented) == 0 {
		lines = append(lines, "  (none)")
	}
	for _, e := range implemented {
		short, _, _ := strings.Cut(e.Help, "\n")
		if short == "" {
			short = "(no help available)"
		}
		if r := []rune(short); len(r) > maxShortHelp {
			short = string(r[:maxShortHelp-3]) + "..."
		}
		lines = append(lines, "  "+e.Name+" - "+short)
	}

	lines = append(lines, "", "Simulated (not implemented) commands: (use 'help <name>' or implement handler)")
	if len(simulated) == 0 {
		lines = append(lines, "  (none)")
	}
	for i := 0; i < len(simulated); i += stubsPerRow {
		row := simulated[i:min(i+stubsPerRow, len(simulated))]
		names := make([]string, len(row))
		for j, e := range row {
			names[j] = e.Name
		}
		lines = append(lines, "  "+strings.Join(names, "  "))
	}
	return strings.Join(lines, "\n"), nil
}
