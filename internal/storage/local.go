package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrExportNotConfigured is returned by Export when no S3 bucket is set.
	ErrExportNotConfigured = errors.New("storage: export is not configured")
	// ErrInvalidFilename is returned when an output name would escape the
	// output directory.
	ErrInvalidFilename = errors.New("storage: invalid output filename")
)

// LocalStorage keeps scratch media and downloads on local disk.
type LocalStorage struct {
	tempDir   string
	outputDir string
}

// NewLocalStorage creates both directories if needed. An empty tempDir
// defaults to $TMPDIR/senpai and an empty outputDir to ./senpai-output.
func NewLocalStorage(tempDir, outputDir string) (*LocalStorage, error) {
	if tempDir == "" {
		tempDir = filepath.Join(os.TempDir(), "senpai")
	}
	if outputDir == "" {
		outputDir = "senpai-output"
	}

	for _, dir := range []string{tempDir, outputDir} {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("storage: create directory %s: %w", dir, err)
		}
	}

	return &LocalStorage{tempDir: tempDir, outputDir: outputDir}, nil
}

// TempDir returns the scratch directory.
func (s *LocalStorage) TempDir() string { return s.tempDir }

// OutputDir returns the download directory.
func (s *LocalStorage) OutputDir() string { return s.outputDir }

// SaveTemp implements Storage.
func (s *LocalStorage) SaveTemp(ctx context.Context, name, ext string, data io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("storage: save %s: %w", name, err)
	}

	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	f, err := os.CreateTemp(s.tempDir, name+"_*"+ext)
	if err != nil {
		return "", fmt.Errorf("storage: create temp file: %w", err)
	}

	path := f.Name()
	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("storage: write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("storage: close temp file: %w", err)
	}
	return path, nil
}

// LoadTemp implements Storage.
func (s *LocalStorage) LoadTemp(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("storage: load %s: %w", path, err)
	}

	f, err := os.Open(path) // #nosec G304 - path comes from SaveTemp
	if err != nil {
		return nil, fmt.Errorf("storage: open temp file: %w", err)
	}
	return f, nil
}

// CleanupTemp implements Storage. It returns the first removal error.
// Files that are already gone are not an error.
func (s *LocalStorage) CleanupTemp(ctx context.Context, paths []string) error {
	var firstErr error
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("storage: cleanup: %w", err)
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			if firstErr == nil {
				firstErr = fmt.Errorf("storage: remove %s: %w", p, err)
			}
		}
	}
	return firstErr
}

// WriteOutput implements Storage. The file is written to a sibling temp
// file first and renamed into place.
func (s *LocalStorage) WriteOutput(ctx context.Context, filename string, data io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("storage: write %s: %w", filename, err)
	}
	if filename == "" || filename != filepath.Base(filename) || filename == "." || filename == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}

	f, err := os.CreateTemp(s.outputDir, "."+filename+"_*")
	if err != nil {
		return "", fmt.Errorf("storage: create output file: %w", err)
	}
	tmp := f.Name()
	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("storage: write output file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("storage: close output file: %w", err)
	}

	path := filepath.Join(s.outputDir, filename)
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("storage: move output file: %w", err)
	}
	return path, nil
}

// Export implements Storage. Local storage never exports.
func (s *LocalStorage) Export(_ context.Context, _ string, _ io.Reader) (string, error) {
	return "", ErrExportNotConfigured
}

var _ Storage = (*LocalStorage)(nil)
