// SPDX-License-Identifier: MPL-2.0

// Package precompile orchestrates one declaration precompile run: resolve
// tsconfig.json, compile declarations into a per-process directory, publish
// them under the package's module name, and record what was written.
package precompile
