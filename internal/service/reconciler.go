// Package service brings the Docker daemon in line with freshly installed
// binaries: it stops a running daemon and installs and restarts the
// systemd units when systemd is present.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ZebulonRouseFrantzich/docker-prebuilt/internal/config"
	"github.com/ZebulonRouseFrantzich/docker-prebuilt/internal/privilege"
)

// TmpDirPermissions sets the permission mode for the unit staging directory.
const TmpDirPermissions = 0700

// daemonNames are the process names a running Docker daemon may have.
var daemonNames = []string{"docker", "dockerd"}

// Reconciler orchestrates daemon shutdown and unit installation.
type Reconciler struct {
	exec       privilege.Executor
	finder     ProcessFinder
	prober     Prober
	systemdDir string
	binDir     string
	logger     config.Logger
}

// NewReconciler creates a reconciler with dependency injection. prober may
// be nil to skip the post-restart health check.
func NewReconciler(
	exec privilege.Executor,
	finder ProcessFinder,
	prober Prober,
	systemdDir string,
	binDir string,
	logger config.Logger,
) *Reconciler {
	return &Reconciler{
		exec:       exec,
		finder:     finder,
		prober:     prober,
		systemdDir: systemdDir,
		binDir:     binDir,
		logger:     config.OrNop(logger),
	}
}

// Reconcile stops any running daemon, then installs and restarts the
// systemd units if the systemd unit directory exists.
func (r *Reconciler) Reconcile(ctx context.Context) error {
	if err := r.stopDaemon(ctx); err != nil {
		return err
	}

	info, err := os.Stat(r.systemdDir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		r.logger.Debugw("no systemd unit directory, skipping service setup", "dir", r.systemdDir)
		return nil
	case err != nil:
		return fmt.Errorf("stat %s: %w", r.systemdDir, err)
	case !info.IsDir():
		r.logger.Debugw("systemd unit path is not a directory, skipping service setup", "path", r.systemdDir)
		return nil
	}

	return r.installUnits(ctx)
}

// stopDaemon kills a running daemon. A kill that exits non-zero is
// tolerated since the daemon may have exited on its own.
func (r *Reconciler) stopDaemon(ctx context.Context) error {
	running, err := r.finder.Running(ctx, daemonNames...)
	if err != nil {
		r.logger.Warnw("could not inspect running processes, stopping daemon anyway", "error", err)
		running = true
	}
	if !running {
		r.logger.Debugw("docker daemon not running")
		return nil
	}

	cmd := privilege.Command{
		Args:            append([]string{"killall"}, daemonNames...),
		Prompt:          "Enter sudo password to stop the docker daemon:",
		CacheCredential: true,
	}
	res, err := r.exec.Run(ctx, cmd)
	if err != nil {
		return fmt.Errorf("stop docker daemon: %w", err)
	}
	if !res.Success() {
		r.logger.Warnw("killall exited non-zero", "exit_code", res.ExitCode, "stderr", res.Stderr)
	}
	return nil
}

// installUnits copies the units into the systemd directory and restarts
// the daemon.
func (r *Reconciler) installUnits(ctx context.Context) error {
	staging, err := os.MkdirTemp("", "docker-units-*")
	if err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)
	if err := os.Chmod(staging, TmpDirPermissions); err != nil {
		return fmt.Errorf("chmod staging dir: %w", err)
	}

	staged, err := StageUnits(staging, r.binDir)
	if err != nil {
		return err
	}

	prompt := "Enter sudo password to install docker service units:"
	steps := []privilege.Command{
		{Args: append(append([]string{"cp"}, staged...), r.systemdDir), Prompt: prompt, CacheCredential: true},
		{Args: []string{"systemctl", "daemon-reload"}, Prompt: prompt, CacheCredential: true},
		{Args: []string{"systemctl", "restart", "docker"}, Prompt: prompt, CacheCredential: true},
	}
	for _, cmd := range steps {
		r.logger.Infow("reconciling service", "command", cmd.String())
		if err := privilege.RunRequired(ctx, r.exec, cmd); err != nil {
			return fmt.Errorf("reconcile docker service: %w", err)
		}
	}

	if r.prober == nil {
		return nil
	}
	apiVersion, err := r.prober.Probe(ctx)
	if err != nil {
		r.logger.Warnw("docker daemon did not answer after restart", "error", err)
		return nil
	}
	r.logger.Infow("docker daemon is up", "api_version", apiVersion)
	return nil
}
