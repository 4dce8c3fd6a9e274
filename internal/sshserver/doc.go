// SPDX-License-Identifier: MPL-2.0

// Package sshserver serves the emulator shell over SSH using the Wish library.
//
// Every connection gets its own session: its own working directory, last
// error, notices and display settings, over the shared sandbox and batch
// queues. Clients authenticate with an access token as the password; public
// keys are rejected. A connection that requests a command runs that one line
// and exits with 0 on success, 1 otherwise.
package sshserver
