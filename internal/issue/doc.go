// SPDX-License-Identifier: MPL-2.0

// Package issue provides user-facing error values for vosemu.
//
// ActionableError and its ErrorContext builder describe CLI-level failures
// (configuration, state directory, server startup). CommandError carries the
// error kinds produced by emulated commands, keeping the exact message text
// the shell prints. Issue holds glamour-rendered markdown guidance keyed by Id.
package issue
