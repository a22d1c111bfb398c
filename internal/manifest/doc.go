// SPDX-License-Identifier: MPL-2.0

// Package manifest records the files a precompile run created and persists
// them as a JSON array, last created first, so a later teardown can remove
// them in LIFO order.
package manifest
