package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when nothing was stored under the key.
var ErrNotFound = errors.New("storage: key not found")

// Store is a durable key/value area partitioned by namespace. Each namespace
// stands for one browser profile; values are opaque JSON documents that are
// always rewritten whole.
type Store interface {
	Get(ctx context.Context, ns, key string) ([]byte, error)
	Put(ctx context.Context, ns, key string, val []byte) error
	Delete(ctx context.Context, ns, key string) error
}
