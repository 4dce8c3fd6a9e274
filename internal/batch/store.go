// SPDX-License-Identifier: MPL-2.0

package batch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vosemu/vosemu/internal/issue"
	"github.com/vosemu/vosemu/pkg/glob"
)

const (
	// StatusPending is reported for every readable record.
	StatusPending Status = "pending"
	// StatusUnreadable is reported for a record that failed to parse.
	StatusUnreadable Status = "unreadable"
)

type (
	// Status is the listing status of a record.
	Status string

	// Clock supplies submission timestamps.
	Clock interface {
		Now() time.Time
	}

	// Option configures a Store.
	Option func(*Store)

	// Store manages batch records beneath a root directory. Its methods are
	// safe for concurrent use within one process; separate processes sharing
	// a root can still race between name generation and write.
	Store struct {
		mu            sync.Mutex
		root          string
		clock         Clock
		logger        *log.Logger
		newID         func() string
		writeFile     func(dir, path string, data []byte) error
		defaultQueue  string
		queuePriority int
	}

	// Receipt describes a stored submission.
	Receipt struct {
		Job  *Job
		Path string
	}

	// Entry is one row of a listing. Job is nil when the record is
	// unreadable, and Err then matches issue.ErrMalformedRecord.
	Entry struct {
		Queue string
		Name  string
		Path  string
		Job   *Job
		Err   error
	}

	realClock struct{}
)

func (realClock) Now() time.Time { return time.Now() }

// WithClock sets the timestamp source.
func WithClock(c Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithLogger sets the store logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithIDGenerator sets the request-id generator.
func WithIDGenerator(f func() string) Option {
	return func(s *Store) { s.newID = f }
}

// WithDefaults overrides the default queue and queue priority.
func WithDefaults(queue string, queuePriority int) Option {
	return func(s *Store) {
		if queue != "" {
			s.defaultQueue = queue
		}
		s.queuePriority = queuePriority
	}
}

// NewStore returns a Store rooted at root. The directory is created on the
// first submission.
func NewStore(root string, opts ...Option) *Store {
	s := &Store{
		root:          root,
		clock:         realClock{},
		logger:        log.Default().WithPrefix("batch"),
		newID:         uuid.NewString,
		writeFile:     writeFileAtomic,
		defaultQueue:  DefaultQueue,
		queuePriority: DefaultQueuePriority,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the queue root directory.
func (s *Store) Root() string { return s.root }

// Submit persists req as a new record and returns where it was written.
func (s *Store) Submit(ctx context.Context, req SubmitRequest) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	job, err := s.newJob(req)
	if err != nil {
		return nil, err
	}
	data, err := job.Encode()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	queueDir := filepath.Join(s.root, job.QueueName)
	if err := os.MkdirAll(queueDir, 0o755); err != nil {
		return nil, fmt.Errorf("create queue %s: %w", job.QueueName, err)
	}
	path, err := uniquePath(queueDir, job.ProcessName)
	if err != nil {
		return nil, err
	}
	if err := s.writeFile(queueDir, path, data); err != nil {
		return nil, err
	}

	s.logger.Debug("submitted", "queue", job.QueueName, "process", job.ProcessName, "file", path)
	return &Receipt{Job: job, Path: path}, nil
}

func (s *Store) newJob(req SubmitRequest) (*Job, error) {
	if strings.TrimSpace(req.CommandLine) == "" {
		return nil, ErrMissingCommandLine
	}
	name := req.ProcessName
	if name == "" {
		name = DeriveProcessName(req.CommandLine)
	} else if err := ValidateProcessName(name); err != nil {
		return nil, err
	}
	queue := req.QueueName
	if queue == "" {
		queue = s.defaultQueue
	}
	if err := ValidateQueueName(queue); err != nil {
		return nil, err
	}
	qpri := s.queuePriority
	if req.QueuePriority != nil {
		qpri = *req.QueuePriority
	}

	return &Job{
		RequestID:       s.newID(),
		CommandLine:     req.CommandLine,
		ProcessName:     name,
		QueueName:       queue,
		ProcessPriority: req.ProcessPriority,
		QueuePriority:   qpri,
		Privileged:      req.Privileged,
		Restart:         !req.NoRestart,
		Notify:          req.Notify,
		OutputPath:      req.OutputPath,
		Module:          req.Module,
		CurrentDir:      req.CurrentDir,
		DeferUntil:      req.DeferUntil,
		ControlFile:     req.ControlFile,
		After:           req.After,
		CPULimit:        req.CPULimit,
		Timestamp:       s.clock.Now().Unix(),
	}, nil
}

// uniquePath returns <dir>/<name>.job, or the first free <name>_N.job.
func uniquePath(dir, name string) (string, error) {
	for n := 0; ; n++ {
		base := name
		if n > 0 {
			base = name + "_" + strconv.Itoa(n)
		}
		path := filepath.Join(dir, base+JobExt)
		_, err := os.Lstat(path)
		if errors.Is(err, fs.ErrNotExist) {
			return path, nil
		}
		if err != nil {
			return "", fmt.Errorf("check %s: %w", path, err)
		}
	}
}

// writeFileAtomic writes data to a temp file in dir and renames it onto
// path, so readers never observe a partial record.
func writeFileAtomic(dir, path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(dir, ".job-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp record: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write record: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close record: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("store record: %w", err)
	}
	return nil
}

// List returns every record, optionally restricted to one queue, ordered by
// queue then file name. Unreadable records are included with Err set.
func (s *Store) List(ctx context.Context, queue string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scan(ctx, queue)
}

func (s *Store) scan(ctx context.Context, queue string) ([]Entry, error) {
	queues, err := os.ReadDir(s.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read queues: %w", err)
	}

	var out []Entry
	for _, q := range queues {
		if !q.IsDir() || (queue != "" && q.Name() != queue) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dir := filepath.Join(s.root, q.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("read queue %s: %w", q.Name(), err)
		}
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), JobExt) {
				continue
			}
			out = append(out, readEntry(q.Name(), filepath.Join(dir, f.Name())))
		}
	}
	return out, nil
}

func readEntry(queue, path string) Entry {
	e := Entry{Queue: queue, Path: path, Name: strings.TrimSuffix(filepath.Base(path), JobExt)}
	data, err := os.ReadFile(path)
	if err != nil {
		e.Err = issue.Malformed(path, err)
		return e
	}
	job, err := Decode(data)
	if err != nil {
		e.Err = issue.Malformed(path, err)
		return e
	}
	e.Job = job
	e.Name = job.ProcessName
	return e
}

// Queues returns the names of the existing queue directories.
func (s *Store) Queues() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := os.ReadDir(s.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read queues: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	slices.Sort(out)
	return out, nil
}

// Cancel deletes every record whose process name matches any pattern and
// returns how many were removed. Unreadable records match by file name.
func (s *Store) Cancel(ctx context.Context, patterns []string) (int, error) {
	matchers := glob.CompileAll(patterns)

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.scan(ctx, "")
	if err != nil {
		return 0, err
	}
	cancelled := 0
	for _, e := range entries {
		if !glob.Any(matchers, e.Name) {
			continue
		}
		if err := os.Remove(e.Path); err != nil {
			s.logger.Warn("cancel failed", "file", e.Path, "err", err)
			continue
		}
		cancelled++
		s.logger.Debug("cancelled", "queue", e.Queue, "process", e.Name, "file", e.Path)
	}
	return cancelled, nil
}

// Update rewrites the priorities of every readable record whose process
// name matches any pattern. Only records whose values actually change are
// written; the count of those is returned.
func (s *Store) Update(ctx context.Context, patterns []string, opts UpdateOptions) (int, error) {
	if opts.empty() {
		return 0, ErrNoPriority
	}
	matchers := glob.CompileAll(patterns)

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.scan(ctx, "")
	if err != nil {
		return 0, err
	}
	updated := 0
	for _, e := range entries {
		if e.Job == nil || !glob.Any(matchers, e.Name) {
			continue
		}
		if !apply(e.Job, opts) {
			continue
		}
		data, err := e.Job.Encode()
		if err == nil {
			err = s.writeFile(filepath.Dir(e.Path), e.Path, data)
		}
		if err != nil {
			s.logger.Warn("update failed", "file", e.Path, "err", err)
			continue
		}
		updated++
		s.logger.Debug("updated", "queue", e.Queue, "process", e.Name, "file", e.Path)
	}
	return updated, nil
}

// apply sets the requested priorities on j and reports whether anything
// changed.
func apply(j *Job, opts UpdateOptions) bool {
	changed := false
	if opts.QueuePriority != nil && j.QueuePriority != *opts.QueuePriority {
		j.QueuePriority = *opts.QueuePriority
		changed = true
	}
	if opts.ProcessPriority != nil && (j.ProcessPriority == nil || *j.ProcessPriority != *opts.ProcessPriority) {
		v := *opts.ProcessPriority
		j.ProcessPriority = &v
		changed = true
	}
	return changed
}

// Status returns the listing status of the entry.
func (e Entry) Status() Status {
	if e.Job == nil {
		return StatusUnreadable
	}
	return StatusPending
}
