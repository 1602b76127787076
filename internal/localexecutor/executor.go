// Package localexecutor runs build commands as child processes of the
// current process through the platform shell.
package localexecutor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"

	"github.com/specialistvlad/wavebuild/internal/ctxlog"
	"github.com/specialistvlad/wavebuild/internal/executor"
)

// MaxOutput is the largest standard output Output accepts.
const MaxOutput = 100 << 20

// ErrOutputTooLarge is returned by Output when a command writes more than
// MaxOutput bytes.
var ErrOutputTooLarge = errors.New("command output exceeds limit")

// Options configures an Executor.
type Options struct {
	// Dir is the working directory of every command. Empty means the
	// current directory.
	Dir string
	// Debug echoes every command before running it and sets DebugEnv=1 in
	// the child environment.
	Debug    bool
	DebugEnv string
	// Env holds extra KEY=VALUE pairs appended to the inherited environment.
	Env []string

	Stdout io.Writer
	Stderr io.Writer
}

// Executor implements executor.Executor and executor.OutputRunner.
type Executor struct {
	opts Options
}

var (
	_ executor.Executor     = (*Executor)(nil)
	_ executor.OutputRunner = (*Executor)(nil)
)

// New creates a new local executor.
func New(opts Options) *Executor {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	return &Executor{opts: opts}
}

// Execute runs command with inherited standard streams and waits for it.
func (e *Executor) Execute(ctx context.Context, command string) error {
	logger := ctxlog.FromContext(ctx)
	if e.opts.Debug {
		fmt.Fprintf(e.opts.Stderr, "$ %s\n", command)
	}

	cmd := e.command(ctx, command)
	cmd.Stdin = os.Stdin
	cmd.Stdout = e.opts.Stdout
	cmd.Stderr = e.opts.Stderr

	logger.Debug("Starting command.", "command", command, "dir", cmd.Dir)
	return exitError(command, cmd.Run())
}

// Output runs command and returns what it wrote to standard output. Standard
// error stays attached to the executor's Stderr.
func (e *Executor) Output(ctx context.Context, command string) ([]byte, error) {
	if e.opts.Debug {
		fmt.Fprintf(e.opts.Stderr, "$ %s\n", command)
	}

	var stdout limitedBuffer
	cmd := e.command(ctx, command)
	cmd.Stdout = &stdout
	cmd.Stderr = e.opts.Stderr

	err := cmd.Run()
	if stdout.overflow {
		return nil, fmt.Errorf("%s: %w", command, ErrOutputTooLarge)
	}
	return stdout.Bytes(), exitError(command, err)
}

func (e *Executor) command(ctx context.Context, command string) *exec.Cmd {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "cmd", "/C", command)
	} else {
		cmd = exec.CommandContext(ctx, "sh", "-c", command)
	}
	cmd.Dir = e.opts.Dir
	cmd.Env = e.environ()
	return cmd
}

func (e *Executor) environ() []string {
	env := append(os.Environ(), "FORCE_COLOR=1")
	if e.opts.Debug && e.opts.DebugEnv != "" {
		env = append(env, e.opts.DebugEnv+"=1")
	}
	return append(env, e.opts.Env...)
}

// exitError converts a process error into an *executor.ExitError. Failures
// to start the process are returned as they are.
func exitError(command string, err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &executor.ExitError{Command: command, Code: exitErr.ExitCode(), Err: err}
	}
	return fmt.Errorf("failed to run %q: %w", command, err)
}

type limitedBuffer struct {
	bytes.Buffer
	overflow bool
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if b.Len()+len(p) > MaxOutput {
		b.overflow = true
		return 0, ErrOutputTooLarge
	}
	return b.Buffer.Write(p)
}
