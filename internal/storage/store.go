package storage

import "context"

// ContentStore holds the immutable content bytes behind a version's
// content_reference. Keys are opaque to callers; objects are written
// once and never overwritten.
type ContentStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}
