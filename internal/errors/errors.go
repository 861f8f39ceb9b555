// Package errors holds the sentinel errors shared by the command layer and
// the mapping from errors to process exit codes.
package errors

import (
	"errors"

	"github.com/naoray/hubber/internal/labels"
	"github.com/naoray/hubber/internal/ui"
)

var (
	ErrTokenMissing       = errors.New("access token not configured")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotGitRepository   = errors.New("not a git repository")
	ErrNotGitHubRemote    = errors.New("remote is not a GitHub repository")
	ErrGitOperationFailed = errors.New("git operation failed")
	ErrNothingToSave      = errors.New("nothing to save")
	ErrProtectedBranch    = errors.New("cannot open a pull request from the base branch")
	ErrNoIssues           = errors.New("no issues found")
	ErrAlreadyCloned      = errors.New("repository already cloned")
)

// Process exit codes.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitAuth        = 3
	ExitRepository  = 4
	ExitRemote      = 5
	ExitUserAborted = 130
)

// ExitCode maps err to the exit code the process should terminate with.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ui.ErrUserAborted):
		return ExitUserAborted
	case errors.Is(err, ErrTokenMissing), errors.Is(err, ErrInvalidCredentials):
		return ExitAuth
	case errors.Is(err, ErrNotGitRepository), errors.Is(err, ErrNotGitHubRemote):
		return ExitRepository
	case errors.Is(err, labels.ErrRemoteUnavailable):
		return ExitRemote
	default:
		return ExitFailure
	}
}
