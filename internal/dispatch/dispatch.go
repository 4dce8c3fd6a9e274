// SPDX-License-Identifier: MPL-2.0

// Package dispatch runs one command line: it resolves the line, invokes the
// handler and folds the result into an Outcome. Handler failures and panics
// become error values; nothing a handler does can stop the caller's loop.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/vosemu/vosemu/internal/issue"
	"github.com/vosemu/vosemu/internal/resolver"
	"github.com/vosemu/vosemu/internal/session"
)

// ErrExit is returned by a handler that ends the interactive session.
var ErrExit = errors.New("exit requested")

type (
	// Outcome is the result of dispatching one line.
	Outcome struct {
		Kind resolver.Kind
		// Line is the input after alias expansion.
		Line string
		// Name is the canonical command name when Kind is resolved.
		Name   string
		Args   []string
		Output string
		Err    *issue.CommandError
		// Candidates and More carry the resolver diagnostic.
		Candidates []string
		More       bool
		// Exit is set when the handler asked to end the session.
		Exit bool

		message string
	}

	// Option configures a Dispatcher.
	Option func(*Dispatcher)

	// Dispatcher resolves and runs command lines.
	Dispatcher struct {
		res    *resolver.Resolver
		logger *log.Logger
	}
)

// WithLogger sets the dispatcher logger.
func WithLogger(l *log.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// New returns a Dispatcher over res.
func New(res *resolver.Resolver, opts ...Option) *Dispatcher {
	d := &Dispatcher{res: res, logger: log.Default().WithPrefix("dispatch")}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Resolver returns the resolver used for lookups.
func (d *Dispatcher) Resolver() *resolver.Resolver { return d.res }

// Dispatch resolves line and, if it names a command, runs it against sess.
// A handler error is recorded as the session's last error; ambiguity and
// unknown-command diagnostics are not.
func (d *Dispatcher) Dispatch(ctx context.Context, sess *session.Session, line string) Outcome {
	r := d.res.Resolve(line)
	out := Outcome{
		Kind:       r.Kind,
		Line:       r.Line,
		Candidates: r.Candidates,
		More:       r.More,
		message:    r.Message(),
	}
	if r.Kind != resolver.KindResolved {
		return out
	}
	out.Name = r.Entry.Name
	out.Args = r.Args

	d.logger.Debug("dispatch", "command", out.Name, "args", len(out.Args))
	output, err := d.invoke(ctx, sess, r)
	out.Output = output
	switch {
	case err == nil:
	case errors.Is(err, ErrExit):
		out.Exit = true
	default:
		out.Err = issue.AsCommandError(err)
		sess.SetLastError(out.Err.Message)
	}
	return out
}

func (d *Dispatcher) invoke(ctx context.Context, sess *session.Session, r resolver.Result) (output string, err error) {
	defer func() {
		if p := recover(); p != nil {
			d.logger.Error("handler panicked", "command", r.Entry.Name, "panic", p)
			output = ""
			err = issue.IOf("%s: internal error: %v", r.Entry.Name, p)
		}
	}()
	if err := ctx.Err(); err != nil {
		return "", issue.IO(r.Entry.Name, err)
	}
	return r.Entry.Invoke(ctx, sess, r.Args)
}

// Text renders the outcome the way the legacy console printed it.
func (o Outcome) Text() string {
	switch o.Kind {
	case resolver.KindResolved:
		if o.Err != nil {
			return o.Err.Legacy()
		}
		return o.Output
	case resolver.KindAmbiguous, resolver.KindUnknown:
		return o.message
	default:
		return ""
	}
}

// Failed reports whether the line did not run successfully.
func (o Outcome) Failed() bool {
	return o.Kind != resolver.KindResolved || o.Err != nil
}

// String summarizes the outcome for logs.
func (o Outcome) String() string {
	if o.Name != "" {
		return fmt.Sprintf("%s %s", o.Kind, o.Name)
	}
	return o.Kind.String()
}
