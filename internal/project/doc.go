// SPDX-License-Identifier: MPL-2.0

// Package project reads the package metadata that decides under which
// module name declarations are published.
package project
