// SPDX-License-Identifier: MPL-2.0

// Package tsconfig locates and reads a project's TypeScript configuration.
//
// Only the options that decide where declaration files live are extracted:
// compilerOptions.paths, rootDir and baseUrl. Files are parsed as JSON with
// comments (hujson), extends chains are followed, and relative options are
// anchored at the file that declared them, as tsc does.
package tsconfig
