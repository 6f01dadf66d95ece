package cmd

import "fmt"

// Exit codes for the resting CLI
const (
	// ExitSuccess indicates every script completed
	ExitSuccess = 0

	// ExitInvalid indicates a malformed script or unusable command line input
	ExitInvalid = 1

	// ExitFailure indicates a script was executed but aborted on a step
	ExitFailure = 2
)

// ExitError carries the process exit code out of a command. A nil Err means
// the failure has already been reported.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}
