package cache

import (
	"context"
	"errors"
	"time"
)

// ErrKeyNotFound is returned by Get for keys that are absent or whose TTL
// has lapsed. Callers translate it into their own domain sentinel.
var ErrKeyNotFound = errors.New("cache: key not found")

// NoExpiry disables the TTL for a Set call.
const NoExpiry time.Duration = 0

// Store is the shared ephemeral key-value substrate behind one-time codes,
// invitation tokens, transaction stashes and the singleton scheduler lock.
// All operations are single-key and atomic at the key level; nothing in the
// platform requires cross-key transactions.
//
// An entry whose expiry has passed must read as absent regardless of whether
// the implementation removes it eagerly or lazily.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// Keys returns the live keys matching a glob pattern. This is O(n) over
	// the key space on every backend and is only used for enumerating
	// outstanding invitation tokens; a secondary index would replace it if
	// that listing ever grows hot.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// TryAcquireLock atomically stores owner under key with the given TTL if
	// and only if the key is absent. Returns false when another owner holds
	// the lock.
	TryAcquireLock(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)

	// ReleaseLock deletes key only if its current value equals owner, as a
	// single atomic step. An unconditional delete here would let a holder
	// whose TTL lapsed steal back a lock legitimately re-acquired elsewhere.
	ReleaseLock(ctx context.Context, key, owner string) (bool, error)
}
