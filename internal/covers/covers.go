// Package covers stores book cover images in a blob backend: the local
// filesystem, process memory or an S3-compatible bucket.
package covers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// Driver identifies a blob backend.
type Driver string

// Drivers.
const (
	DriverFilesystem Driver = "fs"
	DriverMemory     Driver = "memory"
	DriverS3         Driver = "s3"
)

// ContentType is the MIME type of every stored cover. Uploads are
// re-encoded to JPEG before they reach the store.
const ContentType = "image/jpeg"

// Info describes a stored cover.
type Info struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Store is a minimal blob store keyed by slash-separated names.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Delete(ctx context.Context, key string) (bool, error)
	Driver() Driver
}

// ErrNotFound is returned by Get for unknown keys.
var ErrNotFound = errors.New("cover not found")

// NewKey returns a fresh key for a cover image.
func NewKey() string {
	return "covers/" + uuid.NewString() + ".jpg"
}

// Config selects and configures a backend.
type Config struct {
	Driver Driver
	Dir    string // filesystem root
	S3     S3Config
}

// Open builds the Store described by cfg. An empty driver means filesystem.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverFilesystem, "":
		return NewFilesystem(cfg.Dir)
	case DriverMemory:
		return NewMemory(), nil
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown covers driver %q", cfg.Driver)
	}
}
