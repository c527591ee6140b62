// Package config resolves the installer's runtime configuration and provides
// the logging interface shared by all components.
//
// The installer takes no command-line flags. Everything that is not bundled at
// build time comes from the environment (DOCKER_PREBUILT_*) and falls back to
// XDG base directories and the fixed system locations below.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

const (
	// AppName names the XDG subdirectories owned by the installer.
	AppName = "docker-prebuilt"

	// EnvPrefix is the prefix for environment overrides.
	EnvPrefix = "DOCKER_PREBUILT"

	// DefaultURLTemplate is where prebuilt engine archives are published.
	DefaultURLTemplate = "https://get.docker.com/builds/{platform}/{arch}/{filename}"

	// DefaultFilenameTemplate is the archive filename for a release.
	DefaultFilenameTemplate = "docker-{version}.tgz"

	// DefaultBinDir is where binaries are copied on linux.
	DefaultBinDir = "/usr/local/bin"

	// DefaultSystemdDir is the unit directory of the host's service supervisor.
	DefaultSystemdDir = "/etc/systemd/system"

	// MarkerFile records the relative path of the extracted executables.
	MarkerFile = "path.txt"
)

// Config is the resolved, immutable installer configuration.
type Config struct {
	LogLevel    string
	DataDir     string // holds dist/ and the marker file
	CacheDir    string // downloaded archives
	BinDir      string
	SystemdDir  string
	URLTemplate string
}

// MarkerPath returns the location of the marker file.
func (c Config) MarkerPath() string {
	return filepath.Join(c.DataDir, MarkerFile)
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (Config, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("log_level", "warn")
	v.SetDefault("data_dir", filepath.Join(xdg.DataHome, AppName))
	v.SetDefault("cache_dir", filepath.Join(xdg.CacheHome, AppName, "downloads"))
	v.SetDefault("bin_dir", DefaultBinDir)
	v.SetDefault("systemd_dir", DefaultSystemdDir)
	v.SetDefault("url_template", DefaultURLTemplate)

	cfg := Config{
		LogLevel:    v.GetString("log_level"),
		DataDir:     v.GetString("data_dir"),
		CacheDir:    v.GetString("cache_dir"),
		BinDir:      v.GetString("bin_dir"),
		SystemdDir:  v.GetString("systemd_dir"),
		URLTemplate: v.GetString("url_template"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that every directory is absolute and the URL template
// names an archive.
func (c Config) Validate() error {
	dirs := map[string]string{
		"data_dir":    c.DataDir,
		"cache_dir":   c.CacheDir,
		"bin_dir":     c.BinDir,
		"systemd_dir": c.SystemdDir,
	}
	for key, dir := range dirs {
		if dir == "" || !filepath.IsAbs(dir) {
			return fmt.Errorf("config: %s must be an absolute path, got %q", key, dir)
		}
	}

	if !strings.Contains(c.URLTemplate, "{filename}") && !strings.Contains(c.URLTemplate, "{version}") {
		return fmt.Errorf("config: url_template %q has neither {filename} nor {version}", c.URLTemplate)
	}

	if _, err := parseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
