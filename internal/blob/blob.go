package blob

import "context"

// Store persists report artifacts. Put returns a stable location string for
// the stored object: an absolute file path for the local backend, an s3:// URI
// for the S3 backend. Writing the same key twice overwrites the object.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
