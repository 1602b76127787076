package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/specialistvlad/wavebuild/internal/executor"
)

// RecordingExecutor is an executor.Executor that records every command and
// fails the ones containing a configured substring.
type RecordingExecutor struct {
	mu       sync.Mutex
	commands []string

	// FailOn maps a command substring to the exit code it should fail with.
	FailOn map[string]int
	// Stdout is returned by Output.
	Stdout string
}

// Execute implements executor.Executor.
func (r *RecordingExecutor) Execute(_ context.Context, command string) error {
	r.mu.Lock()
	r.commands = append(r.commands, command)
	r.mu.Unlock()

	for substr, code := range r.FailOn {
		if strings.Contains(command, substr) {
			return &executor.ExitError{Command: command, Code: code}
		}
	}
	return nil
}

// Output implements executor.OutputRunner.
func (r *RecordingExecutor) Output(ctx context.Context, command string) ([]byte, error) {
	err := r.Execute(ctx, command)
	return []byte(r.Stdout), err
}

// Commands returns the commands executed so far.
func (r *RecordingExecutor) Commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.commands...)
}
