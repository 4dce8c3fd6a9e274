// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the vosemu command-line interface.
//
// The root command wires configuration, the sandbox layout, the command
// registry and the dispatcher through an App, and exposes them as the
// shell, run, commands, batch, config and serve subcommands.
package cmd
