// Package requirement verifies that host tools the engine depends on are
// present and recent enough.
//
// A tool that cannot be run is assumed optional: the checker logs it and
// moves on. A tool that runs but reports a version below the minimum is fatal.
package requirement

import (
	"context"
	"errors"
	"fmt"

	"github.com/ZebulonRouseFrantzich/docker-prebuilt/internal/command"
	"github.com/ZebulonRouseFrantzich/docker-prebuilt/internal/config"
	"github.com/ZebulonRouseFrantzich/docker-prebuilt/internal/version"
)

// ErrTooOld matches any TooOldError.
var ErrTooOld = errors.New("requirement too old")

// TooOldError reports a tool whose version is below the minimum.
type TooOldError struct {
	Binary  string
	Found   string
	Minimum string
}

func (e *TooOldError) Error() string {
	return fmt.Sprintf("docker requires %s >= %s (found %s)", e.Binary, e.Minimum, e.Found)
}

// Unwrap lets errors.Is match ErrTooOld.
func (e *TooOldError) Unwrap() error {
	return ErrTooOld
}

// Requirement is a host tool with a minimum version.
type Requirement struct {
	Binary  string
	Minimum string
	Args    []string // defaults to --version
	Rule    version.Rule
}

func (r Requirement) args() []string {
	if len(r.Args) == 0 {
		return []string{"--version"}
	}
	return r.Args
}

// Defaults are the tools the engine needs at runtime.
var Defaults = []Requirement{
	{Binary: "git", Minimum: "1.7", Rule: version.Field(2)},
	{Binary: "iptables", Minimum: "1.4", Rule: version.Field(1).WithPrefix("v")},
	{Binary: "xz", Minimum: "4.9", Rule: version.Field(3).WithStrip("alpha", "beta")},
	{Binary: "ps", Minimum: "0.0", Rule: version.Regex(`(\d+(?:\.\d+)+)`)},
}

// Status is the outcome of a single requirement check.
type Status int

const (
	// StatusSatisfied means the tool was found at or above the minimum.
	StatusSatisfied Status = iota
	// StatusUnavailable means the tool could not be run.
	StatusUnavailable
	// StatusUnknown means the tool ran but its version could not be read.
	StatusUnknown
	// StatusTooOld means the tool reported a version below the minimum.
	StatusTooOld
)

// String returns the string representation of the status
func (s Status) String() string {
	switch s {
	case StatusSatisfied:
		return "satisfied"
	case StatusUnavailable:
		return "unavailable"
	case StatusUnknown:
		return "unknown"
	case StatusTooOld:
		return "too old"
	default:
		return "invalid"
	}
}

// Checker runs tools and enforces minimum versions.
type Checker struct {
	runner command.Runner
	logger config.Logger
}

// NewChecker creates a requirement checker.
func NewChecker(runner command.Runner, logger config.Logger) *Checker {
	return &Checker{
		runner: runner,
		logger: config.OrNop(logger),
	}
}

// EnsureMinimum checks one requirement. It returns an error only when the
// tool is too old or the requirement itself is malformed.
func (c *Checker) EnsureMinimum(ctx context.Context, req Requirement) (Status, error) {
	// A bad minimum is a bug in the requirement table, not a host problem
	if _, err := version.Parse(req.Minimum); err != nil {
		return StatusUnknown, fmt.Errorf("requirement %s: %w", req.Binary, err)
	}

	res, err := c.runner.Run(ctx, nil, req.Binary, req.args()...)
	if err != nil {
		if ctx.Err() != nil {
			return StatusUnavailable, ctx.Err()
		}
		c.logger.Warnw("could not check version of required binary", "binary", req.Binary, "error", err)
		return StatusUnavailable, nil
	}
	if !res.Success() {
		c.logger.Warnw("could not check version of required binary",
			"binary", req.Binary, "exit", res.ExitCode, "stderr", res.Stderr)
		return StatusUnavailable, nil
	}

	found, err := req.Rule.Extract(res.Stdout)
	if err != nil {
		c.logger.Warnw("could not read version of required binary", "binary", req.Binary, "error", err)
		return StatusUnknown, nil
	}

	ord, err := version.Compare(found, req.Minimum)
	if err != nil {
		c.logger.Warnw("could not parse version of required binary", "binary", req.Binary, "version", found, "error", err)
		return StatusUnknown, nil
	}

	c.logger.Debugw("checked requirement", "binary", req.Binary, "version", found, "minimum", req.Minimum)

	if ord == version.Less {
		return StatusTooOld, &TooOldError{Binary: req.Binary, Found: found, Minimum: req.Minimum}
	}
	return StatusSatisfied, nil
}

// EnsureAll checks requirements in order and stops at the first fatal one.
func (c *Checker) EnsureAll(ctx context.Context, reqs []Requirement) error {
	for _, req := range reqs {
		if _, err := c.EnsureMinimum(ctx, req); err != nil {
			return err
		}
	}
	return nil
}
