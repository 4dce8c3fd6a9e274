// SPDX-License-Identifier: MPL-2.0

// Package batch persists simulated batch requests as one TOML record per
// file, grouped by queue directory. Nothing is ever executed; records are
// only submitted, listed, cancelled and updated.
//
// Layout:
//
//	<root>/<queue>/<process>.job
//	<root>/<queue>/<process>_1.job
package batch
