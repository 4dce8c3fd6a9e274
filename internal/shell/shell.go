// SPDX-License-Identifier: MPL-2.0

// Package shell runs the interactive read-dispatch-print loop shared by the
// local console and SSH sessions.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vosemu/vosemu/internal/dispatch"
	"github.com/vosemu/vosemu/internal/resolver"
	"github.com/vosemu/vosemu/internal/session"
)

const (
	// Prompt is shown before every line.
	Prompt = "vos> "
	// Intro is printed once when the loop starts.
	Intro = "VOS Emulator - type 'commands' to list, 'help <name>' for details."
)

type (
	// Styles colours the loop's output. The zero value prints plain text.
	Styles struct {
		Intro   lipgloss.Style
		OK      lipgloss.Style
		Error   lipgloss.Style
		Warning lipgloss.Style
	}

	// Shell ties a dispatcher to one session and one line editor.
	Shell struct {
		Dispatcher *dispatch.Dispatcher
		Session    *session.Session
		Editor     LineEditor
		Out        io.Writer
		Styles     Styles
	}
)

// DefaultStyles returns the console colour scheme built on r.
func DefaultStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Intro:   r.NewStyle().Foreground(lipgloss.Color("#7C3AED")),
		OK:      r.NewStyle().Foreground(lipgloss.Color("#10B981")),
		Error:   r.NewStyle().Foreground(lipgloss.Color("#EF4444")),
		Warning: r.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
	}
}

// Run prints the intro and processes lines until input ends, a command asks
// to exit, or ctx is cancelled. End of input is not an error.
func (s *Shell) Run(ctx context.Context) error {
	if _, err := fmt.Fprintln(s.Out, s.Styles.Intro.Render(Intro)); err != nil {
		return err
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := s.Editor.ReadLine(Prompt)
		if errors.Is(err, io.EOF) {
			_, _ = fmt.Fprintln(s.Out)
			return nil
		}
		if err != nil {
			return fmt.Errorf("read line: %w", err)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		s.Editor.AddHistory(line)

		out := s.Dispatcher.Dispatch(ctx, s.Session, line)
		if text := out.Text(); text != "" {
			if _, err := fmt.Fprintln(s.Out, s.style(out).Render(text)); err != nil {
				return err
			}
		}
		if out.Exit {
			return nil
		}
	}
}

func (s *Shell) style(out dispatch.Outcome) lipgloss.Style {
	switch {
	case out.Err != nil:
		return s.Styles.Error
	case out.Kind == resolver.KindAmbiguous, out.Kind == resolver.KindUnknown:
		return s.Styles.Warning
	case strings.HasPrefix(out.Output, "[OK] "):
		return s.Styles.OK
	default:
		return lipgloss.Style{}
	}
}
