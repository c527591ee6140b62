// Package privilege runs commands with superuser rights.
//
// Elevation goes through sudo unless the process already runs as root. The
// invoking user is asked for a password at most once per command, or once
// per run when the command asks for the credential to be cached.
package privilege

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ZebulonRouseFrantzich/docker-prebuilt/internal/command"
)

var (
	// ErrElevation is returned when superuser rights could not be obtained.
	ErrElevation = errors.New("privilege elevation failed")
	// ErrNoCommand is returned for a Command with neither Args nor Shell.
	ErrNoCommand = errors.New("no command given")
)

// Command is a privileged command request.
type Command struct {
	Args            []string // argv of the target command
	Shell           string   // shell string run with sh -c; takes precedence over Args
	Prompt          string   // message shown when a password is needed
	CacheCredential bool     // keep the password for later commands in this run
}

// argv returns the process arguments for c.
func (c Command) argv() ([]string, error) {
	if c.Shell != "" {
		return []string{"sh", "-c", c.Shell}, nil
	}
	if len(c.Args) == 0 {
		return nil, ErrNoCommand
	}
	return c.Args, nil
}

// String renders the command for logs and error messages.
func (c Command) String() string {
	if c.Shell != "" {
		return c.Shell
	}
	return strings.Join(c.Args, " ")
}

// Result is the outcome of a privileged command that ran.
type Result = command.Result

// ExecError reports that a privileged command could not be run at all.
type ExecError struct {
	Command string
	Err     error
}

func (e *ExecError) Error() string {
	if e.Command == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("privileged %q: %v", e.Command, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExecError) Unwrap() error {
	return e.Err
}

// Executor runs commands with superuser rights.
//
// The error return is reserved for failures to elevate or to start the
// command, and for context cancellation. A target command that exits
// non-zero yields a Result carrying its exit code and a nil error.
type Executor interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// elevationError wraps cause so that errors.Is(err, ErrElevation) holds.
func elevationError(cmd Command, cause error) error {
	if cause == nil {
		return &ExecError{Command: cmd.String(), Err: ErrElevation}
	}
	return &ExecError{Command: cmd.String(), Err: fmt.Errorf("%w: %v", ErrElevation, cause)}
}

// ErrCommandFailed matches any StepError.
var ErrCommandFailed = errors.New("command failed")

// StepError reports a privileged command that ran but exited non-zero
// where success was required.
type StepError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *StepError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Command, e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// Is lets errors.Is match ErrCommandFailed.
func (e *StepError) Is(target error) bool {
	return target == ErrCommandFailed
}

// Require turns a non-zero exit into a *StepError.
func Require(cmd Command, res *Result) error {
	if res.Success() {
		return nil
	}
	code := -1
	stderr := ""
	if res != nil {
		code = res.ExitCode
		stderr = res.Stderr
	}
	return &StepError{Command: cmd.String(), ExitCode: code, Stderr: stderr}
}

// RunRequired runs cmd and fails unless it exits zero.
func RunRequired(ctx context.Context, exec Executor, cmd Command) error {
	res, err := exec.Run(ctx, cmd)
	if err != nil {
		return err
	}
	return Require(cmd, res)
}
