package cli

import (
	"errors"

	"github.com/ynput/ayon-jira/internal/api"
)

// Process exit codes.
const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitPreflight = 2
	ExitPartial   = 3
	ExitLocked    = 4
)

// ExitError carries the exit code a command wants the process to end with.
// The message has already been shown to the user when Silent is set.
type ExitError struct {
	Code   int
	Err    error
	Silent bool
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCodeFor classifies err. Locked scopes are checked first since a lock
// failure also leaves both systems untouched.
func ExitCodeFor(err error) int {
	var exitErr *ExitError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &exitErr):
		return exitErr.Code
	case api.IsLocked(err):
		return ExitLocked
	case api.IsPartial(err):
		return ExitPartial
	case api.IsPreflight(err):
		return ExitPreflight
	default:
		return ExitFailure
	}
}

// NewExitError wraps err with the exit code it maps to.
func NewExitError(err error, silent bool) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: ExitCodeFor(err), Err: err, Silent: silent}
}
