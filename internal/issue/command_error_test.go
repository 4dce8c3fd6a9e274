// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"io/fs"
	"testing"
)

func TestCommandError_KindSentinels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *CommandError
		sentinel error
		kind     string
	}{
		{"usage", Usagef("usage: create_file <path>"), ErrUsage, "usage"},
		{"io", IO("delete_file", fs.ErrNotExist), ErrIO, "io"},
		{"containment", Containment("outside", nil), ErrContainment, "containment"},
		{"malformed", Malformed("/q/a.job", errors.New("toml")), ErrMalformedRecord, "malformed-record"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.sentinel)
			}
			if errors.Is(tt.err, errors.New("other")) {
				t.Error("errors.Is should not match unrelated errors")
			}
			if got := tt.err.Kind.String(); got != tt.kind {
				t.Errorf("Kind.String() = %q, want %q", got, tt.kind)
			}
		})
	}
}

func TestCommandError_MessagePreserved(t *testing.T) {
	t.Parallel()

	err := Usagef("usage: %s <path>", "create_file")
	if err.Error() != "usage: create_file <path>" {
		t.Errorf("Error() = %q", err.Error())
	}
	if err.Legacy() != "[ERR] usage: create_file <path>" {
		t.Errorf("Legacy() = %q", err.Legacy())
	}
}

func TestIO_WrapsCause(t *testing.T) {
	t.Parallel()

	err := IO("display_file", fs.ErrNotExist)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("IO() should keep the cause reachable through errors.Is")
	}
	if err.Message != "display_file: "+fs.ErrNotExist.Error() {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestAsCommandError(t *testing.T) {
	t.Parallel()

	if AsCommandError(nil) != nil {
		t.Error("AsCommandError(nil) should be nil")
	}

	plain := errors.New("disk on fire")
	ce := AsCommandError(plain)
	if ce.Kind != KindIO || ce.Message != "disk on fire" {
		t.Errorf("AsCommandError(plain) = %+v", ce)
	}

	orig := Usagef("usage: x")
	if got := AsCommandError(orig); got != orig {
		t.Error("AsCommandError should return an existing CommandError unchanged")
	}
}
