// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/ts-precompile/ts-precompile/internal/compiler"
	"github.com/ts-precompile/ts-precompile/internal/issue"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// exitCodeFailure is returned for every pipeline failure.
const exitCodeFailure = 1

// ServiceError is an error that carries rendering information for the CLI
// layer: the issue catalog entry and the compiler output, if any.
// Always create via newServiceError to enforce the Err-must-be-non-nil invariant.
type ServiceError struct {
	// Err is the underlying error (must not be nil).
	Err error
	// IssueID is the optional issue catalog ID for rendering help text.
	IssueID issue.Id
	// CompilerOutput is the captured compiler stream of a failed compile.
	CompilerOutput string
}

// newServiceError classifies err for rendering.
func newServiceError(err error) *ServiceError {
	if err == nil {
		panic("ServiceError: Err must not be nil")
	}
	svcErr := &ServiceError{Err: err, IssueID: issue.IdOf(err)}

	var failed *compiler.CompilationFailedError
	if errors.As(err, &failed) {
		svcErr.CompilerOutput = failed.Output
	}
	return svcErr
}

// Error implements the error interface.
func (e *ServiceError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *ServiceError) Unwrap() error { return e.Err }

// fail renders err on stderr and returns the ExitError that ends the command.
func (a *App) fail(cmd *cobra.Command, err error, verbose bool) error {
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	renderServiceError(a.stderr, newServiceError(err), verbose)
	return &ExitError{Code: exitCodeFailure}
}

// renderServiceError prints compiler output verbatim between blank lines,
// then the formatted error, then in verbose mode the issue help section.
func renderServiceError(stderr io.Writer, svcErr *ServiceError, verbose bool) {
	if svcErr == nil {
		return
	}

	if svcErr.CompilerOutput != "" {
		fmt.Fprintf(stderr, "\n%s\n\n", svcErr.CompilerOutput)
	}

	fmt.Fprintln(stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(svcErr.Err, verbose))

	if !verbose || svcErr.IssueID == 0 {
		return
	}

	if catalogEntry := issue.Get(svcErr.IssueID); catalogEntry != nil {
		rendered, renderErr := catalogEntry.Render("dark")
		if renderErr != nil {
			log.Warn("failed to render issue catalog entry", "issueID", svcErr.IssueID, "error", renderErr)
		} else {
			fmt.Fprint(stderr, rendered)
		}
	}
}

// formatErrorForDisplay formats an error for user display. ActionableErrors
// use their Format method. The compiler output of a failed compile is
// already printed on its own, so it is not repeated here.
func formatErrorForDisplay(err error, verbose bool) string {
	var failed *compiler.CompilationFailedError
	if errors.As(err, &failed) {
		var ae *issue.ActionableError
		if errors.As(err, &ae) {
			short := *ae
			short.Cause = fmt.Errorf("%w: compiler exited with code %d", compiler.ErrCompilationFailed, failed.ExitCode)
			return short.Format(verbose)
		}
		return fmt.Sprintf("%s: compiler exited with code %d", compiler.ErrCompilationFailed, failed.ExitCode)
	}

	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}
