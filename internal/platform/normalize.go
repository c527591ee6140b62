package platform

import (
	"strings"
)

// runtimeArchAlias maps GOARCH to the vendor-neutral aliases the download
// mappers understand. Unknown values pass through.
func runtimeArchAlias(goarch string) string {
	switch goarch {
	case "amd64":
		return "x64"
	case "386":
		return "ia32"
	default:
		return goarch
	}
}

// kernelVersion reduces a kernel release such as "5.15.0-91-generic" or
// "4.19.112+" to its leading dotted-numeric part.
func kernelVersion(release string) string {
	release = strings.TrimSpace(release)
	if i := strings.IndexByte(release, '-'); i >= 0 {
		release = release[:i]
	}

	end := 0
	for end < len(release) {
		c := release[end]
		if (c < '0' || c > '9') && c != '.' {
			break
		}
		end++
	}
	return strings.Trim(release[:end], ".")
}

// normalizeMachine lowercases and trims the machine name.
func normalizeMachine(machine string) string {
	return strings.ToLower(strings.TrimSpace(machine))
}
