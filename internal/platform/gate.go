package platform

import (
	"errors"
	"fmt"

	"github.com/ZebulonRouseFrantzich/docker-prebuilt/internal/config"
	"github.com/ZebulonRouseFrantzich/docker-prebuilt/internal/version"
)

// ErrHostUnsupported matches any UnsupportedError.
var ErrHostUnsupported = errors.New("host unsupported")

// UnsupportedError reports why the host was rejected.
type UnsupportedError struct {
	Reason string
}

func (e *UnsupportedError) Error() string {
	return e.Reason
}

// Unwrap lets errors.Is match ErrHostUnsupported.
func (e *UnsupportedError) Unwrap() error {
	return ErrHostUnsupported
}

// Gate rejects hosts the engine cannot run on.
type Gate struct {
	minKernel string
	logger    config.Logger
}

// NewGate creates a gate using MinKernelVersion.
func NewGate(logger config.Logger) *Gate {
	return &Gate{
		minKernel: MinKernelVersion,
		logger:    config.OrNop(logger),
	}
}

// Check validates the profile. The platform check is always strict; kernel
// and arch are only checked when introspection succeeded. A release that
// does not parse skips the kernel comparison but not the arch check.
func (g *Gate) Check(p HostProfile) error {
	if !p.IsLinux() {
		return &UnsupportedError{Reason: fmt.Sprintf("unsupported platform: %s", p.Platform)}
	}

	if p.IntrospectionErr != nil {
		g.logger.Warnw("could not check kernel version with uname", "error", p.IntrospectionErr)
		return nil
	}

	ok, err := version.AtLeast(p.KernelVersion, g.minKernel)
	switch {
	case err != nil:
		// Only the kernel comparison is skipped; arch was read fine
		g.logger.Warnw("could not check kernel version", "release", p.KernelRelease, "error", err)
	case !ok:
		return &UnsupportedError{Reason: fmt.Sprintf("unsupported kernel version: %s (need >= %s)", p.KernelVersion, g.minKernel)}
	}

	if p.Arch != SupportedArch {
		return &UnsupportedError{Reason: fmt.Sprintf("docker requires a 64-bit linux installation (found %s)", p.Arch)}
	}

	g.logger.Debugw("host supported", "kernel", p.KernelVersion, "arch", p.Arch)
	return nil
}
