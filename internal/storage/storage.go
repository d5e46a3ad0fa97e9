// Package storage holds the binary payloads of document versions in an
// S3-compatible object store. Content is streamed in and out; nothing touches
// local disk.
package storage

import (
	"context"
	"errors"
	"io"
	"strconv"
	"time"
)

// ErrObjectNotFound is returned by Get when the key does not exist in the bucket.
var ErrObjectNotFound = errors.New("object not found")

// PutObjectOptions describe an upload. Size is the exact byte count, or -1 when unknown.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is the object store used for version payloads.
type Storage interface {
	// Put streams r to key.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get opens key for reading. Callers must close the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// VersionKey builds the object key of an uploaded version payload: documents/{documentID}/{name}.
func VersionKey(documentID int64, name string) string {
	return "documents/" + strconv.FormatInt(documentID, 10) + "/" + name
}
