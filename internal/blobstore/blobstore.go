// Package blobstore abstracts where uploaded item photos live. Keys are
// generated by the caller (see imageproc.StorageKey); the store never sees the
// original filename.
package blobstore

import (
	"context"
	"io"
)

type BlobStore interface {
	// Upload writes the blob under key, overwriting any existing blob.
	Upload(ctx context.Context, key, mimeType string, r io.Reader) error
	// Open returns the blob's content and MIME type.
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
	// PublicURL computes the URL under which the blob is served. It is a pure
	// computation and never fails.
	PublicURL(key string) string
	// Remove deletes the given blobs. Removing a key that does not exist is
	// not an error; callers treat removal as best-effort.
	Remove(ctx context.Context, keys ...string) error
}
