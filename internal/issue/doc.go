// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed pipeline step, the path involved, and
// remediation hints. The catalog maps issue ids to Markdown help that the CLI
// renders with glamour after the error line.
package issue
