// SPDX-License-Identifier: MIT

package cmd

import (
	"errors"
	"os"
	"path/filepath"

	"forgeci/internal/issue"
	"forgeci/pkg/forgefile"
)

// loadPlaybook locates and parses the forgefile, honoring --file.
func loadPlaybook() (*forgefile.Playbook, error) {
	path := forgefilePath
	if path == "" {
		path = forgefile.DefaultFileName
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, newServiceError(
				issue.NewErrorContext().
					WithOperation("locate forgefile").
					WithResource(path).
					WithSuggestion("Run 'forgeci init' to create one").
					Wrap(err).
					BuildError(),
				issue.ForgefileNotFoundId,
				ErrorStyle.Render("No forgefile found at ")+CmdStyle.Render(path)+"\n")
		}
		return nil, newServiceError(err, issue.PermissionDeniedId,
			ErrorStyle.Render("Cannot read forgefile: ")+err.Error()+"\n")
	}

	pb, err := forgefile.Parse(path)
	if err != nil {
		return nil, newServiceError(err, issue.ForgefileParseErrorId,
			ErrorStyle.Render("Invalid forgefile: ")+formatErrorForDisplay(err, verbose)+"\n")
	}
	return pb, nil
}
