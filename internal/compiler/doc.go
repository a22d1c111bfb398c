// SPDX-License-Identifier: MPL-2.0

// Package compiler runs the TypeScript compiler in declaration-only mode.
//
// The Compiler interface is the seam the precompile pipeline depends on;
// ExecCompiler is the production implementation that shells out to tsc,
// preferring a project-local node_modules/.bin/tsc over one on $PATH.
package compiler
