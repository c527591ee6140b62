package platform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// RealDetector implements Detector using runtime and gopsutil.
type RealDetector struct {
	goos   string
	goarch string
	info   func(ctx context.Context) (*host.InfoStat, error)
}

// NewDetector creates a new host detector.
func NewDetector() Detector {
	return &RealDetector{
		goos:   runtime.GOOS,
		goarch: runtime.GOARCH,
		info:   host.InfoWithContext,
	}
}

// Detect builds the host profile.
//
// A gopsutil failure is recorded on the profile rather than returned, so the
// gate can decide to proceed without kernel and arch information.
func (d *RealDetector) Detect(ctx context.Context) HostProfile {
	profile := HostProfile{
		Platform:    d.goos,
		RuntimeArch: runtimeArchAlias(d.goarch),
	}

	stat, err := d.info(ctx)
	if err != nil {
		profile.IntrospectionErr = fmt.Errorf("read host info: %w", err)
		return profile
	}
	if stat == nil || stat.KernelVersion == "" {
		profile.IntrospectionErr = fmt.Errorf("read host info: kernel version unavailable")
		return profile
	}

	profile.KernelRelease = stat.KernelVersion
	profile.KernelVersion = kernelVersion(stat.KernelVersion)
	profile.Arch = normalizeMachine(stat.KernelArch)

	return profile
}
