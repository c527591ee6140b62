// Package command runs host executables and reports their exit status and
// output without treating a non-zero exit as a Go error.
package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gocmd "github.com/go-cmd/cmd"
)

// ErrNotStarted is returned when the process could not be started at all
// (missing executable, permission denied).
var ErrNotStarted = errors.New("command not started")

// Result is the outcome of a process that ran to completion.
type Result struct {
	ExitCode int    // Exit code of the process; -1 if it was killed by a signal.
	Stdout   string // Captured standard output.
	Stderr   string // Captured standard error.
}

// Success reports whether the process exited with status 0.
func (r *Result) Success() bool {
	return r != nil && r.ExitCode == 0
}

// Runner starts a process and waits for it to finish.
//
// The error return is reserved for failures to start the process or for
// context cancellation. A process that ran and exited non-zero yields a
// Result and a nil error.
type Runner interface {
	Run(ctx context.Context, stdin io.Reader, name string, args ...string) (*Result, error)
}

// ExecRunner implements Runner on top of go-cmd.
type ExecRunner struct{}

// NewRunner creates a new process runner.
func NewRunner() Runner {
	return &ExecRunner{}
}

// Run executes name with args and blocks until it exits.
func (r *ExecRunner) Run(ctx context.Context, stdin io.Reader, name string, args ...string) (*Result, error) {
	c := gocmd.NewCmdOptions(gocmd.Options{Buffered: true}, name, args...)

	var statusChan <-chan gocmd.Status
	if stdin != nil {
		statusChan = c.StartWithStdin(stdin)
	} else {
		statusChan = c.Start()
	}

	var status gocmd.Status
	select {
	case status = <-statusChan:
	case <-ctx.Done():
		_ = c.Stop()
		<-statusChan
		return nil, ctx.Err()
	}

	// go-cmd never records a PID when exec.Cmd.Start fails
	if status.Error != nil && status.PID == 0 {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotStarted, name, status.Error)
	}

	exitCode := status.Exit
	if !status.Complete {
		exitCode = -1
	}

	return &Result{
		ExitCode: exitCode,
		Stdout:   joinLines(status.Stdout),
		Stderr:   joinLines(status.Stderr),
	}, nil
}

// String renders a command line for logs and error messages.
func String(name string, args ...string) string {
	return strings.TrimSpace(name + " " + strings.Join(args, " "))
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
