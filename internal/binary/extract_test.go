package binary

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// createTestTar writes a tar archive of files, gzipped when compress is set.
func createTestTar(t *testing.T, files map[string]string, compress bool) string {
	t.Helper()

	var tarBuf bytes.Buffer
	tarWriter := tar.NewWriter(&tarBuf)

	for name, content := range files {
		header := &tar.Header{
			Name:     name,
			Mode:     0755,
			Size:     int64(len(content)),
			Typeflag: tar.TypeReg,
		}
		if err := tarWriter.WriteHeader(header); err != nil {
			t.Fatalf("failed to write header for %s: %v", name, err)
		}
		if _, err := tarWriter.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write content for %s: %v", name, err)
		}
	}
	if err := tarWriter.Close(); err != nil {
		t.Fatalf("failed to close tar writer: %v", err)
	}

	data := tarBuf.Bytes()
	if compress {
		var gzBuf bytes.Buffer
		gzipWriter := gzip.NewWriter(&gzBuf)
		if _, err := gzipWriter.Write(data); err != nil {
			t.Fatalf("failed to gzip archive: %v", err)
		}
		if err := gzipWriter.Close(); err != nil {
			t.Fatalf("failed to close gzip writer: %v", err)
		}
		data = gzBuf.Bytes()
	}

	archivePath := filepath.Join(t.TempDir(), "docker-1.10.0.tgz")
	if err := os.WriteFile(archivePath, data, 0644); err != nil {
		t.Fatalf("failed to write archive: %v", err)
	}
	return archivePath
}

func TestExtract(t *testing.T) {
	files := map[string]string{
		"docker/docker":            "#!/bin/sh\necho docker",
		"docker/docker-containerd": "#!/bin/sh\necho containerd",
		"docker/docker-runc":       "#!/bin/sh\necho runc",
	}

	tests := []struct {
		name     string
		compress bool
	}{
		{name: "gzipped", compress: true},
		{name: "plain tar despite .tgz name", compress: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			archivePath := createTestTar(t, files, tt.compress)
			destDir := t.TempDir()

			if err := NewExtractor().Extract(archivePath, destDir); err != nil {
				t.Fatalf("Extract() error = %v", err)
			}

			for name, want := range files {
				got, err := os.ReadFile(filepath.Join(destDir, name))
				if err != nil {
					t.Errorf("file %s was not extracted: %v", name, err)
					continue
				}
				if string(got) != want {
					t.Errorf("content mismatch for %s:\ngot:  %q\nwant: %q", name, got, want)
				}

				info, err := os.Stat(filepath.Join(destDir, name))
				if err != nil {
					t.Fatal(err)
				}
				if info.Mode().Perm()&0111 == 0 {
					t.Errorf("%s lost its executable bit: %v", name, info.Mode())
				}
			}
		})
	}
}

func TestExtractRejectsPathTraversal(t *testing.T) {
	archivePath := createTestTar(t, map[string]string{"../../etc/evil": "x"}, true)

	err := NewExtractor().Extract(archivePath, t.TempDir())
	if !errors.Is(err, ErrExtract) {
		t.Fatalf("Extract() error = %v, want ErrExtract", err)
	}
}

func TestExtractErrors(t *testing.T) {
	tmp := t.TempDir()

	corruptGzip := filepath.Join(tmp, "corrupt.tgz")
	if err := os.WriteFile(corruptGzip, []byte{0x1f, 0x8b, 0x00, 0x01, 0x02}, 0644); err != nil {
		t.Fatal(err)
	}

	notAnArchive := filepath.Join(tmp, "text.tgz")
	if err := os.WriteFile(notAnArchive, []byte("this is not a tarball at all, just some text that keeps going"), 0644); err != nil {
		t.Fatal(err)
	}

	empty := filepath.Join(tmp, "empty.tgz")
	if err := os.WriteFile(empty, nil, 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(tmp, "missing.tgz")},
		{"corrupt gzip", corruptGzip},
		{"not an archive", notAnArchive},
		{"empty file", empty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewExtractor().Extract(tt.path, filepath.Join(tmp, "out-"+tt.name))
			if !errors.Is(err, ErrExtract) {
				t.Fatalf("Extract() error = %v, want ErrExtract", err)
			}
			var extractErr *ExtractError
			if !errors.As(err, &extractErr) || extractErr.Archive != tt.path {
				t.Errorf("error = %#v, want *ExtractError for %s", err, tt.path)
			}
		})
	}
}

func TestMarkerRoundTrip(t *testing.T) {
	markerPath := filepath.Join(t.TempDir(), "state", "path.txt")

	if err := WriteMarker(markerPath, "dist/docker"); err != nil {
		t.Fatalf("WriteMarker() error = %v", err)
	}
	got, err := ReadMarker(markerPath)
	if err != nil {
		t.Fatalf("ReadMarker() error = %v", err)
	}
	if got != "dist/docker" {
		t.Errorf("ReadMarker() = %q, want dist/docker", got)
	}

	if _, err := ReadMarker(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("ReadMarker() on missing file expected error")
	}
}
