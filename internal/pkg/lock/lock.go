// Package lock provides advisory locks keyed by arbitrary strings. The
// sync engine uses one lock per (tenant, entity type) so that at most one
// sync operation of a given kind is in flight per tenant.
package lock

import (
	"context"
	"errors"
	"time"
)

// ErrHeld is returned by Acquire when the lock is already taken. Callers
// fail fast rather than queue.
var ErrHeld = errors.New("lock already held")

// Locker acquires an advisory lock and returns a release function. The
// release function is safe to call exactly once and must be called on
// every exit path, including panics (defer it).
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}
