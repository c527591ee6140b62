// Package pipeline runs the install as an ordered series of steps. Each step
// runs at most once; the first failure ends the run with no rollback.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ZebulonRouseFrantzich/docker-prebuilt/internal/binary"
	"github.com/ZebulonRouseFrantzich/docker-prebuilt/internal/command"
	"github.com/ZebulonRouseFrantzich/docker-prebuilt/internal/config"
	"github.com/ZebulonRouseFrantzich/docker-prebuilt/internal/platform"
	"github.com/ZebulonRouseFrantzich/docker-prebuilt/internal/privilege"
	"github.com/ZebulonRouseFrantzich/docker-prebuilt/internal/requirement"
	"github.com/ZebulonRouseFrantzich/docker-prebuilt/internal/version"
)

// HostGate rejects unsupported hosts.
type HostGate interface {
	Check(p platform.HostProfile) error
}

// RequirementChecker verifies host tools.
type RequirementChecker interface {
	EnsureAll(ctx context.Context, reqs []requirement.Requirement) error
}

// ArchiveManager fetches and unpacks the product archive.
type ArchiveManager interface {
	Fetch(ctx context.Context, target binary.InstallTarget, profile platform.HostProfile) (string, error)
	Extract(archivePath string, target binary.InstallTarget, platformID string) (string, error)
	// ExecutableDir resolves the executables directory from the marker file.
	ExecutableDir() (string, error)
}

// ServiceReconciler brings the daemon in line with the new binaries.
type ServiceReconciler interface {
	Reconcile(ctx context.Context) error
}

// UserProvisioner grants a user access to the daemon.
type UserProvisioner interface {
	Provision(ctx context.Context, username string) error
}

// Observer is told about step transitions.
type Observer interface {
	StepStarted(s State)
	StepFinished(s State, elapsed time.Duration, err error)
}

// Context is the state accumulated as steps run.
type Context struct {
	Profile     platform.HostProfile
	Installed   string // version reported by an existing docker binary
	ArchivePath string
	ExecDir     string
	Username    string
}

// Dependencies are the collaborators a Pipeline drives.
type Dependencies struct {
	Detector     platform.Detector
	Gate         HostGate
	Checker      RequirementChecker
	Requirements []requirement.Requirement
	Runner       command.Runner // runs docker --version
	Archives     ArchiveManager
	Executor     privilege.Executor
	Service      ServiceReconciler
	Accounts     UserProvisioner
	User         func() (string, error)
	Clock        Clock
	Observer     Observer
	Logger       config.Logger
}

// installedVersionRule extracts "1.9.1" from "Docker version 1.9.1, build a34a1d5".
var installedVersionRule = version.Field(2).WithSuffix(",")

// Pipeline installs one target.
type Pipeline struct {
	target binary.InstallTarget
	deps   Dependencies
	logger config.Logger
	clock  Clock
}

// New creates a pipeline for target.
func New(target binary.InstallTarget, deps Dependencies) *Pipeline {
	clock := deps.Clock
	if clock == nil {
		clock = RealClock{}
	}
	return &Pipeline{
		target: target,
		deps:   deps,
		logger: config.OrNop(deps.Logger),
		clock:  clock,
	}
}

// step is one stage. It returns done=true to finish the run early.
type step struct {
	state State
	run   func(ctx context.Context, pc *Context) (done bool, err error)
}

func (p *Pipeline) steps() []step {
	return []step{
		{CheckingHost, p.checkHost},
		{CheckingRequirements, p.checkRequirements},
		{CheckingExisting, p.checkExisting},
		{Fetching, p.fetch},
		{Extracting, p.extract},
		{InstallingBinary, p.installBinary},
		{ReconcilingService, p.reconcileService},
		{ProvisioningUser, p.provisionUser},
	}
}

// Run executes the steps in order and reports how the run ended.
func (p *Pipeline) Run(ctx context.Context) *Outcome {
	out := &Outcome{Durations: make(map[State]time.Duration)}
	pc := &Context{}

	for _, s := range p.steps() {
		if err := ctx.Err(); err != nil {
			return p.fail(out, s.state, err)
		}

		p.logger.Debugw("entering state", "state", s.state.String())
		if p.deps.Observer != nil {
			p.deps.Observer.StepStarted(s.state)
		}

		start := p.clock.Now()
		done, err := s.run(ctx, pc)
		elapsed := p.clock.Now().Sub(start)
		out.Durations[s.state] = elapsed

		if p.deps.Observer != nil {
			p.deps.Observer.StepFinished(s.state, elapsed, err)
		}
		if err != nil {
			return p.fail(out, s.state, err)
		}
		if done {
			out.ShortCircuit = true
			break
		}
	}

	out.State = Done
	p.logger.Debugw("entering state", "state", Done.String())
	return out
}

func (p *Pipeline) fail(out *Outcome, at State, err error) *Outcome {
	out.State = Failed
	out.FailedAt = at
	out.Err = &Failure{State: at, Err: err}
	p.logger.Errorw("install failed", "state", at.String(), "error", err)
	return out
}

func (p *Pipeline) checkHost(ctx context.Context, pc *Context) (bool, error) {
	pc.Profile = p.deps.Detector.Detect(ctx)
	p.logger.Debugw("host profile",
		"platform", pc.Profile.Platform,
		"kernel", pc.Profile.KernelVersion,
		"arch", pc.Profile.Arch,
	)
	return false, p.deps.Gate.Check(pc.Profile)
}

func (p *Pipeline) checkRequirements(ctx context.Context, _ *Context) (bool, error) {
	return false, p.deps.Checker.EnsureAll(ctx, p.deps.Requirements)
}

// checkExisting finishes the run when the requested version is already
// installed. Any failure to query the existing binary means "not installed".
func (p *Pipeline) checkExisting(ctx context.Context, pc *Context) (bool, error) {
	res, err := p.deps.Runner.Run(ctx, nil, "docker", "--version")
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		p.logger.Debugw("no existing docker binary", "error", err)
		return false, nil
	}
	if !res.Success() {
		p.logger.Debugw("docker --version failed", "exit_code", res.ExitCode)
		return false, nil
	}

	installed, err := installedVersionRule.Extract(res.Stdout)
	if err != nil {
		p.logger.Debugw("could not read installed docker version", "output", res.Stdout, "error", err)
		return false, nil
	}
	pc.Installed = installed
	p.logger.Infow("found docker", "version", installed)

	if installed == p.target.Version {
		p.logger.Infow("current docker version matches requested installation version", "version", installed)
		return true, nil
	}
	return false, nil
}

func (p *Pipeline) fetch(ctx context.Context, pc *Context) (bool, error) {
	path, err := p.deps.Archives.Fetch(ctx, p.target, pc.Profile)
	if err != nil {
		return false, err
	}
	pc.ArchivePath = path
	return false, nil
}

func (p *Pipeline) extract(_ context.Context, pc *Context) (bool, error) {
	dir, err := p.deps.Archives.Extract(pc.ArchivePath, p.target, pc.Profile.Platform)
	if err != nil {
		return false, err
	}
	pc.ExecDir = dir
	return false, nil
}

// installBinary copies every extracted executable into the system binary
// directory. The source directory comes from the marker file.
func (p *Pipeline) installBinary(ctx context.Context, pc *Context) (bool, error) {
	binDir, err := p.target.BinDir(pc.Profile.Platform)
	if err != nil {
		return false, err
	}
	execDir, err := p.deps.Archives.ExecutableDir()
	if err != nil {
		return false, err
	}
	if execDir != pc.ExecDir {
		p.logger.Debugw("marker overrides extracted dir", "marker", execDir, "extracted", pc.ExecDir)
		pc.ExecDir = execDir
	}
	files, err := binary.Executables(execDir)
	if err != nil {
		return false, err
	}

	cmd := privilege.Command{
		Args:            append(append([]string{"cp"}, files...), binDir),
		Prompt:          fmt.Sprintf("Enter sudo password to copy binaries to %s:", binDir),
		CacheCredential: true,
	}
	p.logger.Infow("installing binaries", "count", len(files), "dest", binDir)
	if err := privilege.RunRequired(ctx, p.deps.Executor, cmd); err != nil {
		return false, fmt.Errorf("copy binaries to %s: %w", binDir, err)
	}
	return false, nil
}

func (p *Pipeline) reconcileService(ctx context.Context, _ *Context) (bool, error) {
	return false, p.deps.Service.Reconcile(ctx)
}

func (p *Pipeline) provisionUser(ctx context.Context, pc *Context) (bool, error) {
	username, err := p.deps.User()
	if err != nil {
		return false, err
	}
	pc.Username = username
	return false, p.deps.Accounts.Provision(ctx, username)
}
