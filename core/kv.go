package core

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by KVStore.Get for an absent key.
var ErrKeyNotFound = errors.New("key not found")

// KVStore is any store of named string blobs. It is the persistence
// substrate for state snapshots (session, subscription); writes are
// fire-and-forget from the callers' perspective.
type KVStore interface {
	// Get returns the blob stored under key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
