package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/giacomoverdi/voice-notes-transcriber/internal/utils"
)

const localPrefix = "/uploads/"

// Local stores objects as files under a root directory. Locators look like
// /uploads/<key> so the rest of the system never sees filesystem paths.
type Local struct {
	root string
}

// NewLocal creates the root directory if needed.
func NewLocal(root string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &Local{root: root}, nil
}

func (l *Local) path(locator string) (string, error) {
	key := strings.TrimPrefix(locator, localPrefix)
	if key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid locator %q", locator)
	}
	return filepath.Join(l.root, filepath.FromSlash(key)), nil
}

func (l *Local) Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	// Sanitize segment by segment so the key can never climb out of root.
	parts := make([]string, 0, 3)
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			continue
		}
		parts = append(parts, utils.SanitizeFilename(seg))
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("invalid key %q", key)
	}
	key = strings.Join(parts, "/")
	path := filepath.Join(l.root, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return localPrefix + key, nil
}

func (l *Local) Get(ctx context.Context, locator string) (io.ReadCloser, int64, error) {
	path, err := l.path(locator)
	if err != nil {
		return nil, 0, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open object: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("failed to stat object: %w", err)
	}
	return f, info.Size(), nil
}

// rangeReader limits an opened file to the requested span and closes it.
type rangeReader struct {
	io.Reader
	f *os.File
}

func (r *rangeReader) Close() error { return r.f.Close() }

func (l *Local) GetRange(ctx context.Context, locator string, start, end int64) (io.ReadCloser, error) {
	path, err := l.path(locator)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open object: %w", err)
	}
	if _, err := f.Seek(start, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to seek: %w", err)
	}
	return &rangeReader{Reader: io.LimitReader(f, end-start+1), f: f}, nil
}

func (l *Local) Delete(ctx context.Context, locator string) {
	path, err := l.path(locator)
	if err != nil {
		slog.Warn("Skipping delete of invalid locator", "locator", locator)
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Error("Failed to delete audio file", "locator", locator, "error", err)
	}
}

func (l *Local) DownloadToScratch(ctx context.Context, locator string) (string, error) {
	src, _, err := l.Get(ctx, locator)
	if err != nil {
		return "", err
	}
	defer src.Close()

	scratch := filepath.Join(os.TempDir(), uuid.New().String()+".audio")
	dst, err := os.Create(scratch)
	if err != nil {
		return "", fmt.Errorf("failed to create scratch file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(scratch)
		return "", fmt.Errorf("failed to copy to scratch: %w", err)
	}
	return scratch, nil
}
