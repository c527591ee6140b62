package privilege

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/ZebulonRouseFrantzich/docker-prebuilt/internal/command"
	"github.com/ZebulonRouseFrantzich/docker-prebuilt/internal/config"
)

// DefaultPrompt is shown when a Command carries no prompt of its own.
const DefaultPrompt = "Enter sudo password:"

// SudoExecutor elevates through sudo. A SudoExecutor holds at most one
// credential session and must not be shared across installer runs.
type SudoExecutor struct {
	runner   command.Runner
	prompter Prompter
	euid     func() int
	logger   config.Logger

	mu         sync.Mutex
	sessionOK  bool    // sudo accepted -n -v; no password needed
	credential *string // cached password, set only for CacheCredential commands
}

// SudoOption configures a SudoExecutor.
type SudoOption func(*SudoExecutor)

// WithEUID overrides how the effective user ID is read.
func WithEUID(f func() int) SudoOption {
	return func(s *SudoExecutor) { s.euid = f }
}

// WithLogger sets the logger.
func WithLogger(l config.Logger) SudoOption {
	return func(s *SudoExecutor) { s.logger = config.OrNop(l) }
}

// NewSudoExecutor creates an executor that runs processes through runner
// and asks prompter for a password when sudo needs one.
func NewSudoExecutor(runner command.Runner, prompter Prompter, opts ...SudoOption) *SudoExecutor {
	s := &SudoExecutor{
		runner:   runner,
		prompter: prompter,
		euid:     os.Geteuid,
		logger:   config.NopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes cmd with superuser rights.
func (s *SudoExecutor) Run(ctx context.Context, cmd Command) (*Result, error) {
	argv, err := cmd.argv()
	if err != nil {
		return nil, &ExecError{Command: cmd.String(), Err: err}
	}

	if s.euid() == 0 {
		s.logger.Debugw("running as root", "command", cmd.String())
		return s.direct(ctx, cmd, argv)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	password, err := s.authenticate(ctx, cmd)
	if err != nil {
		return nil, err
	}

	s.logger.Debugw("running with sudo", "command", cmd.String())

	var (
		stdin io.Reader
		args  []string
	)
	if password == nil || s.timestampValid(ctx, *password) {
		args = append([]string{"-n", "--"}, argv...)
	} else {
		// sudo keeps no timestamp here, so it reads the password itself
		stdin = strings.NewReader(*password + "\n")
		args = append([]string{"-S", "-p", "", "--"}, argv...)
	}

	res, err := s.runner.Run(ctx, stdin, "sudo", args...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, elevationError(cmd, err)
	}
	return res, nil
}

// direct runs argv without sudo. A target that cannot be started is
// reported the way a shell would, with exit code 127.
func (s *SudoExecutor) direct(ctx context.Context, cmd Command, argv []string) (*Result, error) {
	res, err := s.runner.Run(ctx, nil, argv[0], argv[1:]...)
	if err == nil {
		return res, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if errors.Is(err, command.ErrNotStarted) {
		return &Result{ExitCode: 127, Stderr: err.Error() + "\n"}, nil
	}
	return nil, &ExecError{Command: cmd.String(), Err: err}
}

// authenticate establishes a sudo session. It returns the password to feed
// sudo on stdin, or nil when sudo runs without one. Callers hold s.mu.
func (s *SudoExecutor) authenticate(ctx context.Context, cmd Command) (*string, error) {
	if s.credential != nil {
		return s.credential, nil
	}
	if s.sessionOK {
		return nil, nil
	}

	res, err := s.runner.Run(ctx, nil, "sudo", "-n", "-v")
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, elevationError(cmd, err)
	}
	if res.Success() {
		s.sessionOK = true
		return nil, nil
	}

	if s.prompter == nil {
		return nil, elevationError(cmd, errors.New("a password is required and no prompt is available"))
	}

	prompt := cmd.Prompt
	if prompt == "" {
		prompt = DefaultPrompt
	}
	password, err := s.prompter.Prompt(prompt)
	if err != nil {
		return nil, elevationError(cmd, err)
	}

	res, err = s.runner.Run(ctx, strings.NewReader(password+"\n"), "sudo", "-S", "-p", "", "-v")
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, elevationError(cmd, err)
	}
	if !res.Success() {
		return nil, elevationError(cmd, errors.New("sudo rejected the password"))
	}

	if cmd.CacheCredential {
		s.credential = &password
	}
	return &password, nil
}

// timestampValid reports whether sudo will run the next command without
// reading a password, refreshing the timestamp with password once if it
// has expired. A target run with -S while the timestamp is valid would get
// the password on its own stdin. Callers hold s.mu.
func (s *SudoExecutor) timestampValid(ctx context.Context, password string) bool {
	if s.sessionActive(ctx) {
		return true
	}
	res, err := s.runner.Run(ctx, strings.NewReader(password+"\n"), "sudo", "-S", "-p", "", "-v")
	if err != nil || !res.Success() {
		return false
	}
	return s.sessionActive(ctx)
}

func (s *SudoExecutor) sessionActive(ctx context.Context) bool {
	res, err := s.runner.Run(ctx, nil, "sudo", "-n", "-v")
	return err == nil && res.Success()
}
