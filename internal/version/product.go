package version

import (
	"strings"

	"github.com/blang/semver/v4"
)

// NormalizeProduct strips prerelease and build qualifiers from a bundled
// product version so it can be matched against what the installed binary
// reports. "1.10.0-rc1" becomes "1.10.0".
func NormalizeProduct(v string) string {
	v = strings.TrimSpace(v)

	sv, err := semver.ParseTolerant(v)
	if err == nil {
		sv.Pre = nil
		sv.Build = nil
		return sv.String()
	}

	// Not semver shaped (e.g. four segments); fall back to cutting the qualifier.
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	return strings.TrimPrefix(v, "v")
}
