package binary

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 10 * time.Minute
	// DefaultUserAgent is the User-Agent header sent with requests
	DefaultUserAgent = "docker-prebuilt/1.0"
)

// Downloader fetches archives into a cache directory. It never retries; a
// failed download ends the install.
type Downloader struct {
	client    *http.Client
	cacheDir  string
	userAgent string
}

// NewDownloader creates a new downloader
func NewDownloader(cacheDir string) *Downloader {
	return &Downloader{
		client: &http.Client{
			Timeout: DefaultTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Allow up to 10 redirects
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		cacheDir:  cacheDir,
		userAgent: DefaultUserAgent,
	}
}

// CachePath returns where the archive described by info is stored:
// cache/{name}/{version}/{filename}
func (d *Downloader) CachePath(info *DownloadInfo) string {
	return filepath.Join(d.cacheDir, info.Name, info.Version, info.Filename)
}

// DownloadArchive downloads the archive to the cache, reusing a previous
// download when one exists.
func (d *Downloader) DownloadArchive(ctx context.Context, info *DownloadInfo) (string, error) {
	if info == nil {
		return "", fmt.Errorf("download info is nil")
	}

	cachePath := d.CachePath(info)

	// Check if already cached
	if fileExists(cachePath) {
		return cachePath, nil
	}

	if err := d.DownloadToFile(ctx, info.URL, cachePath); err != nil {
		return "", err
	}
	return cachePath, nil
}

// DownloadToFile downloads a URL to a specific file path. Failures are
// reported as *DownloadError.
func (d *Downloader) DownloadToFile(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &DownloadError{URL: url, Err: fmt.Errorf("create request: %w", err)}
	}

	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return &DownloadError{URL: url, Err: fmt.Errorf("execute request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &DownloadError{URL: url, StatusCode: resp.StatusCode}
	}

	if err := writeAtomically(destPath, resp.Body); err != nil {
		return &DownloadError{URL: url, Err: err}
	}
	return nil
}

// writeAtomically streams r into destPath via a temporary file and rename.
func writeAtomically(destPath string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	tmpPath := destPath + ".tmp"
	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	// Track whether we need to clean up the temp file
	cleanupNeeded := true
	defer func() {
		tmpFile.Close()
		if cleanupNeeded {
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmpFile, r); err != nil {
		return fmt.Errorf("copy response body: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	cleanupNeeded = false
	return nil
}

// fileExists checks if a file exists and is not empty
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}
