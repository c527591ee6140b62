// Package binary downloads and unpacks the prebuilt Docker engine archive.
//
// # Layout
//
// Archives are cached under the cache directory as
// <cache>/<name>/<version>/<filename> and reused on later runs. The
// extracted tree lives under the data directory; for Linux the executables
// end up in <data>/dist/docker and that relative path is recorded in
// <data>/path.txt so later runs can find them without re-deriving the
// platform mapping.
//
// # Usage
//
//	mgr, err := binary.NewManager(binary.Config{
//	    DataDir:  cfg.DataDir,
//	    CacheDir: cfg.CacheDir,
//	    Logger:   logger,
//	})
//	if err != nil {
//	    return err
//	}
//
//	target := binary.DockerTarget("1.10.0", cfg.URLTemplate, cfg.BinDir)
//	archive, err := mgr.Fetch(ctx, target, profile)
//	if err != nil {
//	    return err
//	}
//	execDir, err := mgr.Extract(archive, target, profile.Platform)
//
// # Architecture
//
// The package is organized into several components:
//   - Manager: fetch and extract orchestration plus the marker file
//   - Downloader: single-attempt HTTP download with caching
//   - Extractor: tar and tar.gz extraction
//   - Platform: vendor platform and arch naming, URL construction
//
// Integrity verification of the archive is not performed.
package binary
