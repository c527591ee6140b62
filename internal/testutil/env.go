// Package testutil provides utilities for testing the installer in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Env holds the isolated directories created by SetupTestEnv.
type Env struct {
	Root       string
	DataDir    string
	CacheDir   string
	BinDir     string
	SystemdDir string // never created, so service setup is skipped
}

// SetupTestEnv points every configurable directory at a fresh temp tree so
// tests never touch the real data dir, download cache, /usr/local/bin or
// /etc/systemd/system.
//
// Cleanup is handled by t.TempDir and t.Setenv.
func SetupTestEnv(t *testing.T) Env {
	t.Helper()

	tmpDir := t.TempDir()
	env := Env{
		Root:       tmpDir,
		DataDir:    filepath.Join(tmpDir, "data"),
		CacheDir:   filepath.Join(tmpDir, "cache"),
		BinDir:     filepath.Join(tmpDir, "bin"),
		SystemdDir: filepath.Join(tmpDir, "systemd"),
	}

	t.Setenv("DOCKER_PREBUILT_DATA_DIR", env.DataDir)
	t.Setenv("DOCKER_PREBUILT_CACHE_DIR", env.CacheDir)
	t.Setenv("DOCKER_PREBUILT_BIN_DIR", env.BinDir)
	t.Setenv("DOCKER_PREBUILT_SYSTEMD_DIR", env.SystemdDir)
	t.Setenv("DOCKER_PREBUILT_LOG_LEVEL", "error")

	// Keep xdg lookups inside the sandbox too
	t.Setenv("XDG_DATA_HOME", filepath.Join(tmpDir, "xdg-data"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(tmpDir, "xdg-cache"))

	for _, dir := range []string{env.DataDir, env.CacheDir, env.BinDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}
	return env
}
