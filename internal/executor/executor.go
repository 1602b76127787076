// Package executor defines how build commands are handed to the operating
// system. The scheduler only sees these interfaces; internal/localexecutor
// provides the process-backed implementation.
package executor

import (
	"context"
	"fmt"
)

// Executor runs a single, fully assembled command line and blocks until the
// child process terminates. Standard output and error are inherited.
// A non-zero exit status is reported as an *ExitError.
type Executor interface {
	Execute(ctx context.Context, command string) error
}

// OutputRunner runs a command and captures its standard output instead of
// inheriting it. On a non-zero exit the captured output is still returned
// together with an *ExitError.
type OutputRunner interface {
	Output(ctx context.Context, command string) ([]byte, error)
}

// ExitError reports a command that terminated with a non-zero status.
type ExitError struct {
	Command string
	Code    int
	Err     error
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("command %q exited with status %d: %v", e.Command, e.Code, e.Err)
	}
	return fmt.Sprintf("command %q exited with status %d", e.Command, e.Code)
}

// Unwrap returns the underlying process error, if any.
func (e *ExitError) Unwrap() error { return e.Err }
