// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, missing setup value,
	// malformed board content the user has to fix).
	UserError = 1

	// AuthError indicates a credentials/config error.
	AuthError = 2

	// BackendError indicates a board/API/worker error, including a run
	// in which one or more rows failed.
	BackendError = 3
)
