package store

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("store: not found")

// Store is the durable key-value storage behind the console's session state.
// Concrete drivers (sqlite, redis, file, memory) implement this. Values are
// opaque bytes; callers own encoding and encryption. Writes replace the whole
// value, last writer wins.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Ping verifies the backing storage is reachable.
	Ping(ctx context.Context) error

	// Close releases any underlying resources.
	Close() error
}

// Watcher is implemented by drivers whose data can be changed by another
// process sharing the same storage (a second agent, an operator deleting the
// entry). Watch blocks, calling fn with the key of each change, until ctx is
// done or the watch fails. Changes made through this process may be reported
// too; consumers should treat fn as "reload key", not as "key differs".
type Watcher interface {
	Watch(ctx context.Context, fn func(key string)) error
}
