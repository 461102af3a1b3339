// Package storage abstracts audio blob persistence behind a single
// interface with a local-filesystem and an S3-compatible implementation,
// selected once at startup.
package storage

import (
	"context"
	"io"
)

// Storage stores and retrieves audio blobs by an opaque locator string.
type Storage interface {
	// Put uploads the content and returns the locator to persist on the note.
	Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error)

	// Get opens the whole object and reports its size.
	Get(ctx context.Context, locator string) (io.ReadCloser, int64, error)

	// GetRange opens the inclusive byte span [start, end].
	GetRange(ctx context.Context, locator string, start, end int64) (io.ReadCloser, error)

	// Delete removes the object. Best-effort: failures are logged, never returned.
	Delete(ctx context.Context, locator string)

	// DownloadToScratch copies the object to a temporary local file for
	// processing and returns its path. The caller removes the file.
	DownloadToScratch(ctx context.Context, locator string) (string, error)
}
