// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Besides a working-directory helper (MustChdir), it builds on-disk project
// fixtures (MustWriteFile, WriteTree) for the tsconfig, declaration and
// manifest tests.
package testutil
