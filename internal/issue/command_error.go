// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
)

const (
	// KindUsage marks a wrong argument count or shape.
	KindUsage Kind = iota + 1
	// KindIO marks a filesystem or host failure inside a handler.
	KindIO
	// KindContainment marks an attempt to leave the sandbox root.
	KindContainment
	// KindMalformedRecord marks a stored record that cannot be decoded.
	KindMalformedRecord

	legacyErrPrefix = "[ERR] "
)

var (
	// ErrUsage is matched by errors.Is for every KindUsage CommandError.
	ErrUsage = errors.New("usage error")
	// ErrIO is matched by errors.Is for every KindIO CommandError.
	ErrIO = errors.New("i/o error")
	// ErrContainment is matched by errors.Is for every KindContainment CommandError.
	ErrContainment = errors.New("containment error")
	// ErrMalformedRecord is matched by errors.Is for every KindMalformedRecord CommandError.
	ErrMalformedRecord = errors.New("malformed record")
)

type (
	// Kind classifies a CommandError.
	Kind int

	// CommandError is the error value returned by command handlers.
	// Message carries the exact text shown to the user; the legacy
	// "[ERR] <message>" rendering is available through Legacy.
	CommandError struct {
		Kind    Kind
		Message string
		Cause   error
	}
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindUsage:
		return "usage"
	case KindIO:
		return "io"
	case KindContainment:
		return "containment"
	case KindMalformedRecord:
		return "malformed-record"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindUsage:
		return ErrUsage
	case KindIO:
		return ErrIO
	case KindContainment:
		return ErrContainment
	case KindMalformedRecord:
		return ErrMalformedRecord
	default:
		return nil
	}
}

// Usagef builds a KindUsage error with a formatted message.
func Usagef(format string, args ...any) *CommandError {
	return &CommandError{Kind: KindUsage, Message: fmt.Sprintf(format, args...)}
}

// IO builds a KindIO error whose message is "<op>: <cause>".
func IO(op string, cause error) *CommandError {
	return &CommandError{Kind: KindIO, Message: op + ": " + cause.Error(), Cause: cause}
}

// IOf builds a KindIO error with a formatted message and no cause.
func IOf(format string, args ...any) *CommandError {
	return &CommandError{Kind: KindIO, Message: fmt.Sprintf(format, args...)}
}

// Containment builds a KindContainment error.
func Containment(message string, cause error) *CommandError {
	return &CommandError{Kind: KindContainment, Message: message, Cause: cause}
}

// Malformed builds a KindMalformedRecord error for the record at path.
func Malformed(path string, cause error) *CommandError {
	msg := "unreadable record " + path
	if cause != nil {
		msg += ": " + cause.Error()
	}
	return &CommandError{Kind: KindMalformedRecord, Message: msg, Cause: cause}
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *CommandError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel for this error's kind.
func (e *CommandError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// Legacy renders the error in the emulator's "[ERR] message" form.
func (e *CommandError) Legacy() string {
	return legacyErrPrefix + e.Message
}

// AsCommandError converts any error into a CommandError. Errors that are
// not already CommandErrors are classified as KindIO.
func AsCommandError(err error) *CommandError {
	if err == nil {
		return nil
	}
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce
	}
	return &CommandError{Kind: KindIO, Message: err.Error(), Cause: err}
}
