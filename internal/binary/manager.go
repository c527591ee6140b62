package binary

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ZebulonRouseFrantzich/docker-prebuilt/internal/config"
	"github.com/ZebulonRouseFrantzich/docker-prebuilt/internal/platform"
)

// Manager orchestrates archive download and extraction
type Manager struct {
	dataDir    string
	markerPath string
	downloader *Downloader
	extractor  *Extractor
	logger     config.Logger
}

// Config holds configuration for the binary manager
type Config struct {
	// DataDir holds the extracted product tree and the marker file
	DataDir string
	// CacheDir holds downloaded archives
	CacheDir string
	// MarkerPath defaults to DataDir/path.txt
	MarkerPath string
	Logger     config.Logger
}

// NewManager creates a new binary manager
func NewManager(cfg Config) (*Manager, error) {
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("DataDir is required")
	}
	if cfg.CacheDir == "" {
		return nil, fmt.Errorf("CacheDir is required")
	}

	markerPath := cfg.MarkerPath
	if markerPath == "" {
		markerPath = filepath.Join(cfg.DataDir, config.MarkerFile)
	}

	return &Manager{
		dataDir:    cfg.DataDir,
		markerPath: markerPath,
		downloader: NewDownloader(cfg.CacheDir),
		extractor:  NewExtractor(),
		logger:     config.OrNop(cfg.Logger),
	}, nil
}

// Resolve returns the download info for target on the given host.
// Identical inputs always resolve to the identical URL.
func (m *Manager) Resolve(target InstallTarget, profile platform.HostProfile) (*DownloadInfo, error) {
	return constructDownloadInfo(target, profile.Platform, profile.ArchAlias())
}

// Fetch downloads the archive for target, reusing a cached copy.
func (m *Manager) Fetch(ctx context.Context, target InstallTarget, profile platform.HostProfile) (string, error) {
	info, err := m.Resolve(target, profile)
	if err != nil {
		return "", fmt.Errorf("construct download info: %w", err)
	}

	m.logger.Infow("fetching archive", "url", info.URL)

	path, err := m.downloader.DownloadArchive(ctx, info)
	if err != nil {
		return "", err
	}

	m.logger.Debugw("archive ready", "path", path)
	return path, nil
}

// Extract unpacks the archive into DataDir/<first element of the extract
// path> and records the extract path in the marker file. It returns the
// absolute directory holding the extracted executables.
//
// The tree is unpacked into a staging directory first so a failed extract
// never leaves a half-written tree in place of a good one.
func (m *Manager) Extract(archivePath string, target InstallTarget, platformID string) (string, error) {
	relPath, err := target.ExtractPath(platformID)
	if err != nil {
		return "", err
	}

	root := filepath.Join(m.dataDir, topLevel(relPath))
	if err := os.MkdirAll(m.dataDir, 0755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}

	staging, err := os.MkdirTemp(m.dataDir, "extract-*")
	if err != nil {
		return "", fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	m.logger.Infow("extracting archive", "archive", archivePath, "dest", root)

	if err := m.extractor.Extract(archivePath, staging); err != nil {
		return "", err
	}

	if err := os.RemoveAll(root); err != nil {
		return "", fmt.Errorf("remove previous tree: %w", err)
	}
	if err := os.Rename(staging, root); err != nil {
		return "", fmt.Errorf("move extracted tree: %w", err)
	}

	if err := WriteMarker(m.markerPath, relPath); err != nil {
		return "", err
	}

	return filepath.Join(m.dataDir, relPath), nil
}

// ExecutableDir returns the directory recorded in the marker file.
func (m *Manager) ExecutableDir() (string, error) {
	relPath, err := ReadMarker(m.markerPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(m.dataDir, relPath), nil
}

// Executables lists the regular files in dir, sorted by name.
func Executables(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no executables found in %s", dir)
	}

	sort.Strings(files)
	return files, nil
}

// topLevel returns the first element of a relative path ("dist/docker" -> "dist").
func topLevel(rel string) string {
	rel = filepath.ToSlash(filepath.Clean(rel))
	for i := 0; i < len(rel); i++ {
		if rel[i] == '/' {
			return rel[:i]
		}
	}
	return rel
}
