package binary

import (
	"errors"
	"fmt"
)

// InstallTarget is the immutable description of what to install.
type InstallTarget struct {
	Name             string            // product name, e.g. "docker"
	Version          string            // requested product version, qualifiers stripped
	FilenameTemplate string            // e.g. "docker-{version}.tgz"
	URLTemplate      string            // e.g. "https://get.docker.com/builds/{platform}/{arch}/{filename}"
	ExtractPaths     map[string]string // platform -> path of the executables relative to the data dir
	BinDirs          map[string]string // platform -> system binary directory
}

// DockerTarget returns the install target for a Docker engine release.
func DockerTarget(version, urlTemplate, binDir string) InstallTarget {
	return InstallTarget{
		Name:             "docker",
		Version:          version,
		FilenameTemplate: "docker-{version}.tgz",
		URLTemplate:      urlTemplate,
		ExtractPaths:     map[string]string{"linux": "dist/docker"},
		BinDirs:          map[string]string{"linux": binDir},
	}
}

// ExtractPath returns the relative executable path for platform.
func (t InstallTarget) ExtractPath(platform string) (string, error) {
	p, ok := t.ExtractPaths[platform]
	if !ok || p == "" {
		return "", fmt.Errorf("no extract path for platform %s", platform)
	}
	return p, nil
}

// BinDir returns the system binary directory for platform.
func (t InstallTarget) BinDir(platform string) (string, error) {
	d, ok := t.BinDirs[platform]
	if !ok || d == "" {
		return "", fmt.Errorf("no binary directory for platform %s", platform)
	}
	return d, nil
}

// DownloadInfo contains metadata needed to download an archive
type DownloadInfo struct {
	Name     string
	Version  string
	Platform string // vendor platform name, e.g. "Linux"
	Arch     string // vendor arch name, e.g. "x86_64"
	Filename string // expanded filename template
	URL      string // constructed download URL
}

var (
	// ErrDownload matches any DownloadError.
	ErrDownload = errors.New("download failed")
	// ErrExtract matches any ExtractError.
	ErrExtract = errors.New("extract failed")
)

// DownloadError reports a network or HTTP failure fetching an archive.
type DownloadError struct {
	URL        string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *DownloadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("download %s: unexpected status code: %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

// Is lets errors.Is match ErrDownload.
func (e *DownloadError) Is(target error) bool {
	return target == ErrDownload
}

// Unwrap returns the underlying transport error.
func (e *DownloadError) Unwrap() error {
	return e.Err
}

// ExtractError reports a decompression or unpack failure.
type ExtractError struct {
	Archive string
	Err     error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Archive, e.Err)
}

// Is lets errors.Is match ErrExtract.
func (e *ExtractError) Is(target error) bool {
	return target == ErrExtract
}

// Unwrap returns the underlying error.
func (e *ExtractError) Unwrap() error {
	return e.Err
}
