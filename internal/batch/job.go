// SPDX-License-Identifier: MPL-2.0

package batch

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/pelletier/go-toml/v2"
)

const (
	// JobExt is the file extension of a batch record.
	JobExt = ".job"
	// DefaultQueue receives requests submitted without -queue.
	DefaultQueue = "normal"
	// DefaultQueuePriority applies when -queue_priority is not given.
	DefaultQueuePriority = 4
	// MaxProcessNameLen bounds derived and explicit process names.
	MaxProcessNameLen = 32
	// FallbackProcessName is used when nothing usable can be derived.
	FallbackProcessName = "batch"
)

var (
	// ErrInvalidProcessName is returned for an explicit process name outside
	// [A-Za-z0-9_-]{1,32}.
	ErrInvalidProcessName = errors.New("invalid process name")
	// ErrInvalidQueueName is returned for a queue name that is not a single
	// directory name.
	ErrInvalidQueueName = errors.New("invalid queue name")
)

// Job is one persisted batch request.
type Job struct {
	RequestID       string `toml:"request_id" yaml:"request_id"`
	CommandLine     string `toml:"command_line" yaml:"command_line"`
	ProcessName     string `toml:"process_name" yaml:"process_name"`
	QueueName       string `toml:"queue_name" yaml:"queue_name"`
	ProcessPriority *int   `toml:"process_priority,omitempty" yaml:"process_priority,omitempty"`
	QueuePriority   int    `toml:"queue_priority" yaml:"queue_priority"`
	Privileged      bool   `toml:"privileged" yaml:"privileged"`
	Restart         bool   `toml:"restart" yaml:"restart"`
	Notify          bool   `toml:"notify" yaml:"notify"`
	OutputPath      string `toml:"output_path,omitempty" yaml:"output_path,omitempty"`
	Module          string `toml:"module,omitempty" yaml:"module,omitempty"`
	CurrentDir      string `toml:"current_dir,omitempty" yaml:"current_dir,omitempty"`
	DeferUntil      string `toml:"defer_until,omitempty" yaml:"defer_until,omitempty"`
	ControlFile     string `toml:"control_file,omitempty" yaml:"control_file,omitempty"`
	After           string `toml:"after,omitempty" yaml:"after,omitempty"`
	CPULimit        string `toml:"cpu_limit,omitempty" yaml:"cpu_limit,omitempty"`
	Timestamp       int64  `toml:"timestamp" yaml:"timestamp"`
}

// Encode serializes the job record.
func (j *Job) Encode() ([]byte, error) {
	data, err := toml.Marshal(j)
	if err != nil {
		return nil, fmt.Errorf("encode job %s: %w", j.ProcessName, err)
	}
	return data, nil
}

// Decode parses a job record. Records without a process name are rejected.
func Decode(data []byte) (*Job, error) {
	var j Job
	if err := toml.Unmarshal(data, &j); err != nil {
		return nil, err
	}
	if j.ProcessName == "" {
		return nil, errors.New("record has no process_name")
	}
	return &j, nil
}

// DeriveProcessName builds a default process name from the first word of a
// command line: surrounding quotes are dropped, the last '>' segment and the
// host base name are kept, the extension is removed, and characters outside
// [A-Za-z0-9_-] are filtered out. An empty result becomes "batch".
func DeriveProcessName(commandLine string) string {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return FallbackProcessName
	}
	word := strings.Trim(fields[0], `'"`)
	if i := strings.LastIndex(word, ">"); i >= 0 {
		word = word[i+1:]
	}
	if word != "" {
		word = filepath.Base(word)
	}
	if i := strings.LastIndex(word, "."); i >= 0 {
		word = word[:i]
	}

	var sb strings.Builder
	for _, r := range word {
		if isNameRune(r) {
			sb.WriteRune(r)
		}
	}
	name := sb.String()
	if name == "" {
		return FallbackProcessName
	}
	return truncateRunes(name, MaxProcessNameLen)
}

// ValidateProcessName checks an explicitly supplied process name.
func ValidateProcessName(name string) error {
	if name == "" || len([]rune(name)) > MaxProcessNameLen {
		return fmt.Errorf("%w: %q", ErrInvalidProcessName, name)
	}
	for _, r := range name {
		if !isNameRune(r) {
			return fmt.Errorf("%w: %q", ErrInvalidProcessName, name)
		}
	}
	return nil
}

// ValidateQueueName checks that name can be used as a queue directory.
func ValidateQueueName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidQueueName, name)
	}
	return nil
}

func isNameRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-'
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
