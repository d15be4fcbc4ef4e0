package storage

import (
	"context"
	"io"
	"net/url"
	"time"
)

// Package storage archives raw uploaded content in an S3-compatible object store.
// Implementations must avoid using local disk and rely on streaming I/O only.

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1 and the implementation
// will buffer/chunk as supported by the backend.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	LastModified time.Time
}

// Archive keeps a copy of every accepted upload next to its database record.
// Methods use context and streaming readers; no local disk is used.
type Archive interface {
	// Put uploads an object under the given key using the provided reader and options.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Delete removes an object by key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// FileKey is the object key for a file's raw content.
func FileKey(owner, fileID string) string {
	return "files/" + url.PathEscape(owner) + "/" + fileID + ".txt"
}

// Noop is the Archive used when no object store is configured.
type Noop struct{}

func (Noop) Put(_ context.Context, key string, _ io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	return ObjectInfo{Key: key, Size: opt.Size}, nil
}

func (Noop) Delete(context.Context, string) error { return nil }
