// SPDX-License-Identifier: MPL-2.0

package batch

import (
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrUnknownOption is returned for an unrecognized -option.
	ErrUnknownOption = errors.New("unknown option")
	// ErrMissingValue is returned when a valued option ends the argument list.
	ErrMissingValue = errors.New("missing value")
	// ErrMissingCommandLine is returned when only options were given.
	ErrMissingCommandLine = errors.New("missing command line")
	// ErrInvalidPriority is returned for a non-integer priority.
	ErrInvalidPriority = errors.New("invalid priority")
	// ErrNoPriority is returned by update when neither priority is set.
	ErrNoPriority = errors.New("specify process names and at least one priority option")
)

type (
	// SubmitRequest is a parsed batch submission. Zero values mean "use the
	// store default".
	SubmitRequest struct {
		CommandLine     string
		ProcessName     string
		QueueName       string
		ProcessPriority *int
		QueuePriority   *int
		Privileged      bool
		NoRestart       bool
		Notify          bool
		OutputPath      string
		Module          string
		CurrentDir      string
		DeferUntil      string
		ControlFile     string
		After           string
		CPULimit        string
	}

	// UpdateOptions selects the priorities to rewrite.
	UpdateOptions struct {
		QueuePriority   *int
		ProcessPriority *int
	}

	// OptionError reports a bad option token.
	OptionError struct {
		Option string
		Err    error
	}

	// PriorityError reports a priority value that is not an integer.
	PriorityError struct {
		Field string
		Value string
	}
)

// valued maps each option that takes a value to the request field it sets.
var valued = map[string]func(*SubmitRequest, string) error{
	"-process_name":     func(r *SubmitRequest, v string) error { r.ProcessName = v; return nil },
	"-output_path":      func(r *SubmitRequest, v string) error { r.OutputPath = v; return nil },
	"-process_priority": func(r *SubmitRequest, v string) error { return setPriority(&r.ProcessPriority, "process_priority", v) },
	"-queue_priority":   func(r *SubmitRequest, v string) error { return setPriority(&r.QueuePriority, "queue_priority", v) },
	"-queue":            func(r *SubmitRequest, v string) error { r.QueueName = v; return nil },
	"-module":           func(r *SubmitRequest, v string) error { r.Module = v; return nil },
	"-current_dir":      func(r *SubmitRequest, v string) error { r.CurrentDir = v; return nil },
	"-defer_until":      func(r *SubmitRequest, v string) error { r.DeferUntil = v; return nil },
	"-control":          func(r *SubmitRequest, v string) error { r.ControlFile = v; return nil },
	"-after":            func(r *SubmitRequest, v string) error { r.After = v; return nil },
	"-cpu_limit":        func(r *SubmitRequest, v string) error { r.CPULimit = v; return nil },
}

var flags = map[string]func(*SubmitRequest){
	"-privileged": func(r *SubmitRequest) { r.Privileged = true },
	"-no_restart": func(r *SubmitRequest) { r.NoRestart = true },
	"-notify":     func(r *SubmitRequest) { r.Notify = true },
}

// ParseSubmitArgs splits batch arguments into the command line and options.
// Non-option tokens form the command line in order, wherever they appear.
func ParseSubmitArgs(args []string) (SubmitRequest, error) {
	var (
		req   SubmitRequest
		parts []string
	)
	for i := 0; i < len(args); i++ {
		tok := args[i]
		if !strings.HasPrefix(tok, "-") {
			parts = append(parts, tok)
			continue
		}
		if set, ok := flags[tok]; ok {
			set(&req)
			continue
		}
		set, ok := valued[tok]
		if !ok {
			return SubmitRequest{}, &OptionError{Option: tok, Err: ErrUnknownOption}
		}
		if i+1 >= len(args) {
			return SubmitRequest{}, &OptionError{Option: tok, Err: ErrMissingValue}
		}
		i++
		if err := set(&req, args[i]); err != nil {
			return SubmitRequest{}, err
		}
	}
	if len(parts) == 0 {
		return SubmitRequest{}, ErrMissingCommandLine
	}
	req.CommandLine = strings.Join(parts, " ")
	return req, nil
}

// ParseUpdateArgs splits update arguments into process-name patterns and
// the priorities to apply. At least one pattern and one priority are
// required.
func ParseUpdateArgs(args []string) ([]string, UpdateOptions, error) {
	var (
		patterns []string
		opts     UpdateOptions
	)
	for i := 0; i < len(args); i++ {
		tok := args[i]
		if !strings.HasPrefix(tok, "-") {
			patterns = append(patterns, tok)
			continue
		}
		var (
			dst  **int
			name string
		)
		switch tok {
		case "-queue_priority":
			dst, name = &opts.QueuePriority, "queue_priority"
		case "-process_priority":
			dst, name = &opts.ProcessPriority, "process_priority"
		default:
			return nil, UpdateOptions{}, &OptionError{Option: tok, Err: ErrUnknownOption}
		}
		if i+1 >= len(args) {
			return nil, UpdateOptions{}, &OptionError{Option: tok, Err: ErrMissingValue}
		}
		i++
		if err := setPriority(dst, name, args[i]); err != nil {
			return nil, UpdateOptions{}, err
		}
	}
	if len(patterns) == 0 || opts.empty() {
		return nil, UpdateOptions{}, ErrNoPriority
	}
	return patterns, opts, nil
}

func (o UpdateOptions) empty() bool {
	return o.QueuePriority == nil && o.ProcessPriority == nil
}

func setPriority(dst **int, name, value string) error {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return &PriorityError{Field: name, Value: value}
	}
	*dst = &n
	return nil
}

// Error implements the error interface.
func (e *OptionError) Error() string {
	if errors.Is(e.Err, ErrMissingValue) {
		return "missing value for " + e.Option
	}
	return "unknown option " + e.Option
}

// Unwrap returns the underlying sentinel.
func (e *OptionError) Unwrap() error { return e.Err }

// Error implements the error interface.
func (e *PriorityError) Error() string { return "invalid " + e.Field }

// Unwrap returns ErrInvalidPriority for errors.Is() compatibility.
func (e *PriorityError) Unwrap() error { return ErrInvalidPriority }

// IsInputError reports whether err was caused by the request itself rather
// than by the filesystem.
func IsInputError(err error) bool {
	for _, target := range []error{
		ErrUnknownOption, ErrMissingValue, ErrMissingCommandLine, ErrInvalidPriority,
		ErrNoPriority, ErrInvalidProcessName, ErrInvalidQueueName,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
