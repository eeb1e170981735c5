package cli

import "codeberg.org/mutker/fwectl/internal/errors"

const (
	// Resolution Errors
	ErrToolNotFound = errors.ErrorCode("cli_tool_not_found")
	ErrProbeFailed  = errors.ErrorCode("cli_probe_failed")

	// Execution Errors
	ErrSpawnFailed = errors.ErrorCode("cli_spawn_failed")
	ErrTimeout     = errors.ErrorCode("cli_timeout")
	ErrCancelled   = errors.ErrorCode("cli_cancelled")
	ErrNonZeroExit = errors.ErrorCode("cli_nonzero_exit")

	// Parsing Errors
	ErrParseFailed = errors.ErrorCode("cli_parse_failed")
)

// exitFailure carries the exit code and captured stderr of a failed
// tool invocation for diagnostics.
type exitFailure struct {
	Code   int
	Stderr string
}
