// SPDX-License-Identifier: MPL-2.0

// Package vospath maps legacy '>'-separated path names onto a sandboxed
// host directory.
//
// A working directory is tracked as a host-relative path beneath the sandbox
// root ("" is the root itself). Names beginning with '>' are absolute within
// the sandbox, other '>' names and plain names are relative to the working
// directory, and host-absolute names are returned unchanged.
package vospath

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Separator is the legacy path segment separator.
const Separator = ">"

var (
	// ErrNotDirectory is returned when a directory change targets a missing path or a file.
	ErrNotDirectory = errors.New("target directory does not exist")
	// ErrOutsideSandbox is returned when a directory change would leave the sandbox root.
	ErrOutsideSandbox = errors.New("target is outside the sandbox")
	// ErrUnrepresentable is returned when a directory name contains the
	// legacy separator and so cannot be written back as a legacy path.
	ErrUnrepresentable = errors.New("directory name contains '" + Separator + "'")
)

type (
	// Resolver resolves legacy path names beneath Root.
	Resolver struct {
		root string
	}

	// NotDirectoryError reports a directory change to a path that is not a directory.
	NotDirectoryError struct {
		Path string
	}

	// OutsideSandboxError reports a directory change that escapes the sandbox root.
	OutsideSandboxError struct {
		Path string
		Root string
	}
)

// New returns a Resolver for the sandbox at root. The root is made absolute
// and cleaned so containment checks compare normalized paths.
func New(root string) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve sandbox root %q: %w", root, err)
	}
	return &Resolver{root: filepath.Clean(abs)}, nil
}

// Root returns the absolute sandbox root.
func (r *Resolver) Root() string { return r.root }

// Dir returns the host path of the working directory cwd.
func (r *Resolver) Dir(cwd string) string {
	if cwd == "" {
		return r.root
	}
	return filepath.Join(r.root, cwd)
}

// Resolve converts name to a host path given the working directory cwd.
func (r *Resolver) Resolve(cwd, name string) string {
	if name == "" {
		return r.Dir(cwd)
	}
	name = strings.TrimSpace(name)
	if filepath.IsAbs(name) {
		return name
	}
	if strings.Contains(name, Separator) {
		parts := segments(name)
		if strings.HasPrefix(name, Separator) {
			return filepath.Join(append([]string{r.root}, parts...)...)
		}
		return filepath.Join(append([]string{r.Dir(cwd)}, parts...)...)
	}
	return filepath.Join(r.Dir(cwd), name)
}

// ChangeDir resolves target against cwd and returns the new working
// directory. The target must be an existing directory inside the sandbox
// root; on error cwd is left for the caller to keep unchanged.
func (r *Resolver) ChangeDir(cwd, target string) (string, error) {
	path := r.Resolve(cwd, target)

	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return cwd, &NotDirectoryError{Path: path}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return cwd, fmt.Errorf("resolve %q: %w", path, err)
	}
	if !r.Contains(abs) {
		return cwd, &OutsideSandboxError{Path: path, Root: r.root}
	}

	rel, err := filepath.Rel(r.root, abs)
	if err != nil {
		return cwd, fmt.Errorf("relativize %q: %w", abs, err)
	}
	if rel == "." {
		return "", nil
	}
	if strings.Contains(rel, Separator) {
		return cwd, fmt.Errorf("%w: %s", ErrUnrepresentable, path)
	}
	return rel, nil
}

// Contains reports whether the absolute path abs is the sandbox root or
// lies beneath it.
func (r *Resolver) Contains(abs string) bool {
	abs = filepath.Clean(abs)
	if abs == r.root {
		return true
	}
	return strings.HasPrefix(abs, r.root+string(filepath.Separator))
}

// Format renders a working directory in legacy notation: ">" for the root,
// ">A>B" for "A/B".
func Format(cwd string) string {
	if cwd == "" {
		return Separator
	}
	return Separator + strings.Join(strings.Split(filepath.ToSlash(cwd), "/"), Separator)
}

func segments(name string) []string {
	var parts []string
	for _, p := range strings.Split(name, Separator) {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// Error implements the error interface.
func (e *NotDirectoryError) Error() string {
	return fmt.Sprintf("target directory does not exist: %s", e.Path)
}

// Unwrap returns ErrNotDirectory for errors.Is() compatibility.
func (e *NotDirectoryError) Unwrap() error { return ErrNotDirectory }

// Error implements the error interface.
func (e *OutsideSandboxError) Error() string {
	return fmt.Sprintf("target %s is outside STATE_DIR", e.Path)
}

// Unwrap returns ErrOutsideSandbox for errors.Is() compatibility.
func (e *OutsideSandboxError) Unwrap() error { return ErrOutsideSandbox }
