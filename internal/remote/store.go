// Package remote publishes filtered bag outputs to an object store:
// S3-compatible storage or a local folder, both with atomic puts, behind a
// retry wrapper and optional payload encryption.
package remote

import (
	"context"
	"errors"
)

// ErrNotFound reports a Get for a key that does not exist.
var ErrNotFound = errors.New("object not found")

// Store is an object store for published bag outputs. Puts must be atomic:
// a reader never observes a partially written object under its final key.
type Store interface {
	List(ctx context.Context, prefix string) ([]string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	PutAtomic(ctx context.Context, key string, data []byte) error
}
