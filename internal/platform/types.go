// Package platform derives the host profile the installer gates on and
// rejects hosts the prebuilt engine cannot run on.
//
// Platform comes from the Go runtime and is always checked. Kernel release and
// machine architecture come from gopsutil; if that introspection fails the
// gate warns and lets the install proceed.
package platform

import "context"

const (
	// SupportedPlatform is the only platform the prebuilt engine ships for.
	SupportedPlatform = "linux"

	// SupportedArch is the only machine architecture accepted by the gate.
	SupportedArch = "x86_64"

	// MinKernelVersion is the oldest kernel the engine supports.
	MinKernelVersion = "3.10"
)

// HostProfile describes the host. It is derived once and never modified.
type HostProfile struct {
	Platform      string // "linux", "darwin", ...
	KernelVersion string // dotted numeric prefix of the kernel release, e.g. "5.15.0"
	KernelRelease string // raw release, e.g. "5.15.0-91-generic"
	Arch          string // machine architecture as uname reports it, e.g. "x86_64"
	RuntimeArch   string // vendor-neutral alias derived from GOARCH, e.g. "x64"

	// IntrospectionErr is set when kernel/arch could not be read.
	IntrospectionErr error
}

// IsLinux returns true if the platform is Linux.
func (p HostProfile) IsLinux() bool {
	return p.Platform == SupportedPlatform
}

// ArchAlias returns the architecture to resolve download names from,
// preferring the introspected machine arch.
func (p HostProfile) ArchAlias() string {
	if p.Arch != "" {
		return p.Arch
	}
	return p.RuntimeArch
}

// Detector is the interface for host detection.
type Detector interface {
	Detect(ctx context.Context) HostProfile
}
