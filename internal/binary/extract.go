package binary

import (
	"archive/tar"
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/klauspost/compress/gzip"
)

// gzipMagic is the two-byte header of a gzip member.
var gzipMagic = []byte{0x1f, 0x8b}

// Extractor handles archive extraction
type Extractor struct{}

// NewExtractor creates a new extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract unpacks a tar archive into destDir, transparently decompressing it
// when it is gzipped. The archive is streamed; it is never held in memory.
// Failures are reported as *ExtractError.
func (e *Extractor) Extract(archivePath, destDir string) error {
	if err := e.extract(archivePath, destDir); err != nil {
		return &ExtractError{Archive: archivePath, Err: err}
	}
	return nil
}

func (e *Extractor) extract(archivePath, destDir string) error {
	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archiveFile.Close()

	stream, err := maybeGunzip(bufio.NewReader(archiveFile))
	if err != nil {
		return err
	}
	defer stream.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	tarReader := tar.NewReader(stream)
	entries := 0

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}
		entries++

		if err := writeEntry(destDir, header, tarReader); err != nil {
			return err
		}
	}

	if entries == 0 {
		return errors.New("archive contains no entries")
	}
	return nil
}

// maybeGunzip wraps br in a gzip reader if the stream starts with the gzip
// magic number, otherwise returns it as a plain tar stream.
func maybeGunzip(br *bufio.Reader) (io.ReadCloser, error) {
	head, err := br.Peek(len(gzipMagic))
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read archive header: %w", err)
	}

	if bytes.Equal(head, gzipMagic) {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		return gz, nil
	}
	return io.NopCloser(br), nil
}

// writeEntry materializes one tar entry under destDir.
func writeEntry(destDir string, header *tar.Header, r io.Reader) error {
	// Security check: prevent path traversal
	name := filepath.Clean(header.Name)
	if filepath.IsAbs(name) || name == ".." || strings.HasPrefix(name, ".."+string(os.PathSeparator)) {
		return fmt.Errorf("illegal file path: %s", header.Name)
	}

	target, err := securejoin.SecureJoin(destDir, name)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", header.Name, err)
	}

	switch header.Typeflag {
	case tar.TypeDir:
		if err := os.MkdirAll(target, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", target, err)
		}

	case tar.TypeReg:
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("create parent dir for %s: %w", target, err)
		}

		outFile, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(header.Mode).Perm())
		if err != nil {
			return fmt.Errorf("create file %s: %w", target, err)
		}

		if _, err := io.Copy(outFile, r); err != nil {
			outFile.Close()
			return fmt.Errorf("write file %s: %w", target, err)
		}

		if err := outFile.Close(); err != nil {
			return fmt.Errorf("close file %s: %w", target, err)
		}

	case tar.TypeSymlink:
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("create parent dir for %s: %w", target, err)
		}
		os.Remove(target)
		if err := os.Symlink(header.Linkname, target); err != nil {
			return fmt.Errorf("create symlink %s: %w", target, err)
		}

	case tar.TypeLink:
		source, err := securejoin.SecureJoin(destDir, header.Linkname)
		if err != nil {
			return fmt.Errorf("resolve link %s: %w", header.Linkname, err)
		}
		os.Remove(target)
		if err := os.Link(source, target); err != nil {
			return fmt.Errorf("create hard link %s: %w", target, err)
		}

	default:
		// Skip other types (char devices, block devices, etc.)
	}

	return nil
}

// WriteMarker records relPath, the location of the extracted executables,
// so later runs do not have to re-derive the platform mapping.
func WriteMarker(markerPath, relPath string) error {
	if err := writeAtomically(markerPath, strings.NewReader(relPath)); err != nil {
		return fmt.Errorf("write marker file: %w", err)
	}
	return nil
}

// ReadMarker returns the relative path stored by WriteMarker.
func ReadMarker(markerPath string) (string, error) {
	data, err := os.ReadFile(markerPath)
	if err != nil {
		return "", fmt.Errorf("read marker file: %w", err)
	}
	p := strings.TrimSpace(string(data))
	if p == "" {
		return "", fmt.Errorf("marker file %s is empty", markerPath)
	}
	return p, nil
}
