package cli

import (
	"errors"
	"fmt"
	"strings"
)

// ExitCoder is an error with an explicit process exit code.
type ExitCoder interface {
	error
	ExitCode() int
}

// UsageError indicates a user-facing mistake (exit code 2).
type UsageError struct {
	Message string
}

func (e UsageError) Error() string { return e.Message }
func (e UsageError) ExitCode() int { return 2 }

func usageErrorf(format string, args ...any) UsageError {
	return UsageError{Message: fmt.Sprintf(format, args...)}
}

// ExitError wraps an error with a specific exit code. An ExitError with a nil Err reports a result rather than a failure (ex: "the files differ"), and Run prints nothing
// for it.
type ExitError struct {
	Code int
	Err  error
}

func (e ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

func (e ExitError) Unwrap() error { return e.Err }
func (e ExitError) ExitCode() int { return e.Code }

// exitCodeFor maps err to 0, 1, or 2.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	var coder ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	// cobra reports unknown subcommands with a plain error.
	if strings.HasPrefix(err.Error(), "unknown command") {
		return 2
	}
	return 1
}

// isSilent reports whether err carries an exit code but no message.
func isSilent(err error) bool {
	var exitErr ExitError
	return errors.As(err, &exitErr) && exitErr.Err == nil
}
