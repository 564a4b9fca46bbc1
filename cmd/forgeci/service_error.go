// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"forgeci/internal/issue"
)

// ServiceError attaches terminal presentation to a failure on its way out
// of the command layer: a pre-styled headline plus, for known failure
// classes, an issue catalog id whose remediation help is rendered below
// it. Execute renders the error before exiting.
type ServiceError struct {
	// Err is the failure being decorated (never nil).
	Err error
	// IssueID selects the catalog entry to render; zero means none.
	IssueID issue.Id
	// StyledMessage is the pre-rendered headline, printed verbatim.
	StyledMessage string
}

// newServiceError guards against decorating a nil error. All construction
// sites go through here.
func newServiceError(err error, issueID issue.Id, styledMessage string) *ServiceError {
	if err == nil {
		panic("ServiceError: Err must not be nil")
	}
	return &ServiceError{Err: err, IssueID: issueID, StyledMessage: styledMessage}
}

// Error implements the error interface.
func (e *ServiceError) Error() string { return e.Err.Error() }

// Unwrap exposes the decorated failure to errors.Is/As chains.
func (e *ServiceError) Unwrap() error { return e.Err }

// Render writes the headline, then the catalog entry's help text when the
// error names one. An entry that fails to render is logged and skipped
// rather than masking the original failure.
func (e *ServiceError) Render(w io.Writer) {
	fmt.Fprint(w, e.StyledMessage)

	entry := issue.Get(e.IssueID)
	if entry == nil {
		return
	}
	help, err := entry.Render("dark")
	if err != nil {
		slog.Debug("issue catalog entry did not render", "issueID", e.IssueID, "error", err)
		return
	}
	fmt.Fprint(w, help)
}
