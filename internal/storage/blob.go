package storage

import "context"

// BlobStore puts and deletes objects by key. Delete succeeds when the object
// does not exist.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}
