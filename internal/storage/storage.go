// Package storage keeps generated media on disk and optionally exports
// downloads to S3.
//
// Media handles live in a scratch directory and are removed when their
// owner releases them. Downloads are written under fixed names into the
// output directory.
package storage

import (
	"context"
	"io"
)

// Storage is the file port used by the studio.
type Storage interface {
	// SaveTemp writes data to a new scratch file whose name starts with
	// name and ends with ext, and returns its path.
	SaveTemp(ctx context.Context, name, ext string, data io.Reader) (path string, err error)

	// LoadTemp opens a scratch file. The caller closes it.
	LoadTemp(ctx context.Context, path string) (io.ReadCloser, error)

	// CleanupTemp removes scratch files, continuing past failures.
	CleanupTemp(ctx context.Context, paths []string) error

	// WriteOutput writes data to filename inside the output directory,
	// replacing any previous file, and returns the full path.
	WriteOutput(ctx context.Context, filename string, data io.Reader) (path string, err error)

	// Export uploads data under key and returns its URL.
	// Returns ErrExportNotConfigured when no bucket is set up.
	Export(ctx context.Context, key string, data io.Reader) (url string, err error)
}
