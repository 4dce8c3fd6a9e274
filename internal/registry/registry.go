// SPDX-License-Identifier: MPL-2.0

// Package registry holds the canonical command names known to the emulator
// and the alias table that rewrites shorthand input before resolution.
package registry

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/vosemu/vosemu/internal/session"
)

// StubHelp is the help text of every simulated command.
const StubHelp = "This command is simulated and not fully implemented. Refer to the VOS Commands Reference Manual for details."

const (
	// KindReal marks an entry backed by a handler.
	KindReal Kind = iota + 1
	// KindStub marks a simulated entry with no behavior.
	KindStub
)

var (
	// ErrAlreadyRegistered is returned when a name is registered twice.
	ErrAlreadyRegistered = errors.New("command already registered")
	// ErrNilHandler is returned when a real entry has no handler.
	ErrNilHandler = errors.New("handler is nil")
)

type (
	// Kind tags an Entry as real or simulated.
	Kind int

	// Handler runs a command. Handlers report failures through the returned
	// error and never panic for any argument list, including an empty one.
	Handler func(ctx context.Context, sess *session.Session, args []string) (string, error)

	// Entry is one registered command. Name is the canonical spelling and
	// never changes after registration.
	Entry struct {
		Name    string
		Kind    Kind
		Help    string
		handler Handler
	}

	// Registry maps canonical command names to entries.
	Registry struct {
		entries []Entry
		byName  map[string]int
		byLower map[string]int
	}

	// DuplicateError reports a name that was already registered.
	DuplicateError struct {
		Name string
	}
)

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		byName:  make(map[string]int),
		byLower: make(map[string]int),
	}
}

// Register adds a command backed by h.
func (r *Registry) Register(name string, h Handler, help string) error {
	if h == nil {
		return fmt.Errorf("register %q: %w", name, ErrNilHandler)
	}
	return r.add(Entry{Name: name, Kind: KindReal, Help: help, handler: h})
}

// RegisterStub adds a simulated command.
func (r *Registry) RegisterStub(name string) error {
	return r.add(Entry{Name: name, Kind: KindStub, Help: StubHelp})
}

// MustRegister is Register for built-in tables; it panics on error.
func (r *Registry) MustRegister(name string, h Handler, help string) {
	if err := r.Register(name, h, help); err != nil {
		panic(err)
	}
}

func (r *Registry) add(e Entry) error {
	if _, ok := r.byName[e.Name]; ok {
		return &DuplicateError{Name: e.Name}
	}
	idx := len(r.entries)
	r.entries = append(r.entries, e)
	r.byName[e.Name] = idx
	// Names differing only in case share a lowercase key; the first one
	// registered keeps it.
	lower := strings.ToLower(e.Name)
	if _, ok := r.byLower[lower]; !ok {
		r.byLower[lower] = idx
	}
	return nil
}

// Lookup finds the entry whose name equals text, ignoring case.
func (r *Registry) Lookup(text string) (Entry, bool) {
	idx, ok := r.byLower[strings.ToLower(text)]
	if !ok {
		return Entry{}, false
	}
	return r.entries[idx], true
}

// Names returns every canonical name in lexicographic order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		names = append(names, e.Name)
	}
	slices.Sort(names)
	return names
}

// All returns every entry ordered by name.
func (r *Registry) All() []Entry {
	out := slices.Clone(r.entries)
	slices.SortFunc(out, func(a, b Entry) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Implemented returns the real entries ordered by name.
func (r *Registry) Implemented() []Entry {
	return slices.DeleteFunc(r.All(), func(e Entry) bool { return e.Kind != KindReal })
}

// Stubs returns the simulated entries ordered by name.
func (r *Registry) Stubs() []Entry {
	return slices.DeleteFunc(r.All(), func(e Entry) bool { return e.Kind != KindStub })
}

// Len returns the number of registered commands.
func (r *Registry) Len() int { return len(r.entries) }

// Implemented reports whether the entry has real behavior.
func (e Entry) Implemented() bool { return e.Kind == KindReal }

// Invoke runs the entry. A stub reports that it is simulated.
func (e Entry) Invoke(ctx context.Context, sess *session.Session, args []string) (string, error) {
	if e.Kind == KindStub || e.handler == nil {
		return e.Name + " (simulated)", nil
	}
	return e.handler(ctx, sess, args)
}

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindReal:
		return "implemented"
	case KindStub:
		return "simulated"
	default:
		return "unknown"
	}
}

// Error implements the error interface.
func (e *DuplicateError) Error() string {
	return fmt.Sprintf("command %q already registered", e.Name)
}

// Unwrap returns ErrAlreadyRegistered for errors.Is() compatibility.
func (e *DuplicateError) Unwrap() error { return ErrAlreadyRegistered }
