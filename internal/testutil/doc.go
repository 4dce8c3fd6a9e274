// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Common helpers include environment variable management (MustSetenv),
// filesystem setup (MustMkdirAll, MustWriteFile, MustReadFile), resource
// cleanup (MustStop) and a controllable FakeClock.
package testutil
