package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock obtained from a Locker.
type UnlockFunc func(ctx context.Context) error

// Locker serializes work on a key, possibly across processes. The compile
// service holds it while compiling and saving one artifact name.
type Locker interface {
	// Lock blocks until the lock for key is held or ctx is done. The lock
	// lapses after ttl if it is never released.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
