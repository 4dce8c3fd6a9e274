// SPDX-License-Identifier: MPL-2.0

package sshserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/vosemu/vosemu/internal/session"
	"github.com/vosemu/vosemu/internal/shell"
)

type (
	// window tracks the client's pty size for display_terminal_parameters.
	window struct {
		mu    sync.Mutex
		cols  int
		lines int
	}

	// termEditor reads lines through a VT100 terminal on the SSH channel,
	// which echoes input back to the client.
	termEditor struct {
		t *term.Terminal
	}

	// noHistory keeps term.Terminal from recalling earlier lines.
	noHistory struct{}

	// sshEnviron exposes the client environment to termenv.
	sshEnviron struct {
		environ []string
	}
)

var errNoWindow = errors.New("no terminal size reported")

func (w *window) set(cols, lines int) {
	w.mu.Lock()
	w.cols, w.lines = cols, lines
	w.mu.Unlock()
}

// Size implements session.TerminalSizer.
func (w *window) Size() (int, int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cols <= 0 || w.lines <= 0 {
		return 0, 0, errNoWindow
	}
	return w.cols, w.lines, nil
}

func newTermEditor(rw io.ReadWriter, cols, lines int) *termEditor {
	t := term.NewTerminal(rw, "")
	t.History = noHistory{}
	if cols > 0 && lines > 0 {
		_ = t.SetSize(cols, lines)
	}
	return &termEditor{t: t}
}

func (e *termEditor) ReadLine(prompt string) (string, error) {
	e.t.SetPrompt(prompt)
	return e.t.ReadLine()
}

func (e *termEditor) AddHistory(string) {}

// Write sends output through the terminal so newlines become CRLF.
func (e *termEditor) Write(p []byte) (int, error) { return e.t.Write(p) }

func (noHistory) Add(string) {}

func (noHistory) Len() int { return 0 }

func (noHistory) At(int) string { panic("sshserver: empty history") }

func (e sshEnviron) Environ() []string { return e.environ }

func (e sshEnviron) Getenv(key string) string {
	for _, kv := range e.environ {
		if k, v, ok := strings.Cut(kv, "="); ok && k == key {
			return v
		}
	}
	return ""
}

func (s *Server) sessionMiddleware() wish.Middleware {
	return func(ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			_ = sess.Exit(s.handle(sess))
		}
	}
}

// handle serves one connection and returns its exit status.
func (s *Server) handle(sess ssh.Session) int {
	ctx := sess.Context()
	ptyReq, winCh, isPty := sess.Pty()

	if line := sess.RawCommand(); line != "" {
		var ts session.TerminalSizer
		if isPty {
			w := &window{}
			w.set(ptyReq.Window.Width, ptyReq.Window.Height)
			ts = w
		}
		return s.runLine(ctx, sess, s.newSession(ts), line)
	}

	sh := &shell.Shell{Dispatcher: s.dispatcher}
	if isPty {
		w := &window{}
		w.set(ptyReq.Window.Width, ptyReq.Window.Height)
		editor := newTermEditor(sess, ptyReq.Window.Width, ptyReq.Window.Height)
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case win, ok := <-winCh:
					if !ok {
						return
					}
					w.set(win.Width, win.Height)
					_ = editor.t.SetSize(win.Width, win.Height)
				}
			}
		}()

		env := sshEnviron{environ: append(sess.Environ(), "TERM="+ptyReq.Term)}
		r := lipgloss.NewRenderer(sess, termenv.WithEnvironment(env), termenv.WithUnsafe(), termenv.WithColorCache(true))
		sh.Session = s.newSession(w)
		sh.Editor, sh.Out, sh.Styles = editor, editor, shell.DefaultStyles(r)
	} else {
		sh.Session = s.newSession(nil)
		sh.Editor, sh.Out = shell.NewPlainEditor(sess, sess), sess
	}

	if err := sh.Run(ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		s.logger.Warn("session ended with error", "user", sess.User(), "error", err)
		return 1
	}
	return 0
}

// runLine dispatches a single command line. Diagnostics go to stderr and
// make the exit status 1.
func (s *Server) runLine(ctx context.Context, sess ssh.Session, vs *session.Session, line string) int {
	out := s.dispatcher.Dispatch(ctx, vs, line)
	text := out.Text()
	if out.Failed() {
		if text != "" {
			_, _ = fmt.Fprintln(sess.Stderr(), text)
		}
		return 1
	}
	if text != "" {
		_, _ = fmt.Fprintln(sess, text)
	}
	return 0
}
