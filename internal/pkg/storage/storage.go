package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound is returned when the bucket has no object under the key.
var ErrObjectNotFound = errors.New("storage: object not found")

// Storage is the read side of an object store, used as a message source.
type Storage interface {
	io.Closer

	// GetObject retrieves data and metadata for the object. Callers close the reader.
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error)
}

// ObjectInfo describes object metadata.
type ObjectInfo struct {
	// Bucket is the bucket name.
	Bucket string
	// Key is the object key.
	Key string
	// Size is the object size in bytes.
	Size int64
	// ETag is the object ETag when provided.
	ETag string
	// ContentType is the object MIME type.
	ContentType string
	// UpdatedAt is the last modified time.
	UpdatedAt time.Time
}
