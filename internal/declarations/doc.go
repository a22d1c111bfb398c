// SPDX-License-Identifier: MPL-2.0

// Package declarations publishes compiled declaration files under the module
// names a project's tsconfig path aliases promise.
//
// For every alias in compilerOptions.paths, each target is resolved against
// the search roots (hand-written source first, compiler output second) and
// every matching .d.ts file is copied to <project>/<package>/, named after
// the alias key with its namespace replaced by the package name. Writes are
// recorded so the manifest package can later tear them down.
package declarations
