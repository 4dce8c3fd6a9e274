// SPDX-License-Identifier: MPL-2.0

// Package session holds the per-connection emulator state: working
// directory, last error, notices, display settings, profiles and library
// paths. A Session is safe for concurrent use; every exported method takes
// the session lock.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/vosemu/vosemu/internal/vospath"
)

const (
	// FilesystemDir is the sandbox subdirectory of the state directory.
	FilesystemDir = "filesystem"
	// InternalsDir holds emulator metadata outside the sandbox.
	InternalsDir = "vos_internals"
	// BatchesDir is the batch queue root beneath InternalsDir.
	BatchesDir = "batches"

	// DefaultProfile is the profile every session starts with.
	DefaultProfile = "default"
	// DefaultModule is reported by display_current_module.
	DefaultModule = "vos-emulator"
)

type (
	// Layout locates the sandbox and the batch queues under a state directory.
	// The two trees are disjoint so batch records never show up in listings.
	Layout struct {
		StateDir   string
		Filesystem string
		Batches    string
	}

	// TerminalSizer reports the size of the terminal attached to a session.
	TerminalSizer interface {
		Size() (cols, lines int, err error)
	}

	// Options seeds a new Session.
	Options struct {
		Language      string
		TimeZone      string
		LineWrapWidth int
		Terminal      TerminalSizer
	}

	// Session is the mutable state of one emulator shell.
	Session struct {
		mu    sync.Mutex
		paths *vospath.Resolver
		term  TerminalSizer

		cwd          string
		lastError    string
		hasError     bool
		notices      []string
		language     string
		timeZone     string
		wrapWidth    int
		profile      string
		profiles     []string
		libraryPaths []string
	}
)

// NewLayout derives the directory layout for stateDir.
func NewLayout(stateDir string) Layout {
	return Layout{
		StateDir:   stateDir,
		Filesystem: filepath.Join(stateDir, FilesystemDir),
		Batches:    filepath.Join(stateDir, InternalsDir, BatchesDir),
	}
}

// Ensure creates the sandbox and batch directories.
func (l Layout) Ensure() error {
	for _, dir := range []string{l.Filesystem, l.Batches} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// New returns a Session rooted at the resolver's sandbox.
func New(paths *vospath.Resolver, opts Options) *Session {
	s := &Session{
		paths:     paths,
		term:      opts.Terminal,
		language:  opts.Language,
		timeZone:  opts.TimeZone,
		wrapWidth: opts.LineWrapWidth,
		profile:   DefaultProfile,
		profiles:  []string{DefaultProfile},
	}
	if s.language == "" {
		s.language = "en"
	}
	if s.timeZone == "" {
		s.timeZone = "UTC"
	}
	if s.wrapWidth <= 0 {
		s.wrapWidth = 80
	}
	return s
}

// Root returns the absolute sandbox root.
func (s *Session) Root() string { return s.paths.Root() }

// Resolve maps a legacy path name against the current directory.
func (s *Session) Resolve(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paths.Resolve(s.cwd, name)
}

// Dir returns the host path of the current directory.
func (s *Session) Dir() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paths.Dir(s.cwd)
}

// CurrentDir returns the current directory relative to the sandbox root.
func (s *Session) CurrentDir() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cwd
}

// ChangeDir moves to target and returns the new directory in legacy
// notation. On error the current directory is unchanged.
func (s *Session) ChangeDir(target string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.paths.ChangeDir(s.cwd, target)
	if err != nil {
		return "", err
	}
	s.cwd = next
	return vospath.Format(next), nil
}

// SetLastError records msg as the most recent error.
func (s *Session) SetLastError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = msg
	s.hasError = true
}

// LastError returns the most recent error message, if any.
func (s *Session) LastError() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError, s.hasError
}

// AddNotice queues a notice for display_notices.
func (s *Session) AddNotice(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, msg)
}

// DrainNotices returns and clears the queued notices.
func (s *Session) DrainNotices() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.notices
	s.notices = nil
	return out
}

// Language returns the display language code.
func (s *Session) Language() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.language
}

// SetLanguage sets the display language code.
func (s *Session) SetLanguage(lang string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.language = lang
}

// TimeZone returns the IANA zone used for displayed times.
func (s *Session) TimeZone() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeZone
}

// SetTimeZone sets the zone used for displayed times.
func (s *Session) SetTimeZone(tz string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeZone = tz
}

// LineWrapWidth returns the column at which output is wrapped.
func (s *Session) LineWrapWidth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wrapWidth
}

// SetLineWrapWidth sets the wrap width; n must be positive.
func (s *Session) SetLineWrapWidth(n int) error {
	if n <= 0 {
		return fmt.Errorf("line wrap width must be positive")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wrapWidth = n
	return nil
}

// Profile returns the active profile name.
func (s *Session) Profile() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// SetProfile activates name, adding it to the known profiles if new.
func (s *Session) SetProfile(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.Contains(s.profiles, name) {
		s.profiles = append(s.profiles, name)
	}
	s.profile = name
}

// AddProfile registers name and reports whether it was new.
func (s *Session) AddProfile(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.profiles, name) {
		return false
	}
	s.profiles = append(s.profiles, name)
	return true
}

// Profiles returns the known profile names in creation order.
func (s *Session) Profiles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.profiles)
}

// LibraryPaths returns the configured library paths in insertion order.
func (s *Session) LibraryPaths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.libraryPaths)
}

// AddLibraryPath appends path and reports whether it was new.
func (s *Session) AddLibraryPath(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.libraryPaths, path) {
		return false
	}
	s.libraryPaths = append(s.libraryPaths, path)
	return true
}

// DeleteLibraryPath removes path and reports whether it was present.
func (s *Session) DeleteLibraryPath(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.Index(s.libraryPaths, path)
	if i < 0 {
		return false
	}
	s.libraryPaths = slices.Delete(s.libraryPaths, i, i+1)
	return true
}

// Terminal returns the session's terminal, or nil when detached.
func (s *Session) Terminal() TerminalSizer {
	return s.term
}
