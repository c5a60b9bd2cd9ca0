// Package storage keeps uploaded evidence files. Paths are relative keys of
// the form {owner_id}/evidence/{unix_millis}-{filename}.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

var (
	ErrNotFound    = errors.New("object not found")
	ErrInvalidPath = errors.New("invalid object path")
)

// ObjectStore is the blob backend for evidence uploads.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

type Backend string

const (
	BackendLocal Backend = "local"
	BackendS3    Backend = "s3"
)

type Config struct {
	Backend  Backend
	LocalDir string
	S3       S3Config
}

// New builds the store selected by cfg.Backend. Local is the default.
func New(ctx context.Context, cfg Config) (ObjectStore, error) {
	switch cfg.Backend {
	case "", BackendLocal:
		dir := cfg.LocalDir
		if dir == "" {
			dir = "data/uploads"
		}
		return NewLocalStore(dir)
	case BackendS3:
		if cfg.S3.Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET is required for s3 storage")
		}
		return NewS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}

// cleanKey rejects keys that could escape the store root.
func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, key)
	}
	c := path.Clean(key)
	if c == "." || c == ".." || strings.HasPrefix(c, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, key)
	}
	return c, nil
}
