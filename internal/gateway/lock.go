package gateway

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

const DefaultLockWait = 15 * time.Second

// Lock serializes every mutation the gateway performs. Waiting is bounded;
// a caller that cannot get the lock in time fails with ErrBusy.
type Lock struct {
	sem  *semaphore.Weighted
	wait time.Duration
}

func NewLock(wait time.Duration) *Lock {
	if wait <= 0 {
		wait = DefaultLockWait
	}
	return &Lock{sem: semaphore.NewWeighted(1), wait: wait}
}

// Acquire returns a release func that is safe to call more than once.
func (l *Lock) Acquire(ctx context.Context) (func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	start := time.Now()
	if err := l.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lockBusyTotal.Inc()
		return nil, ErrBusy
	}
	lockWaitSeconds.Observe(time.Since(start).Seconds())

	var once sync.Once
	return func() { once.Do(func() { l.sem.Release(1) }) }, nil
}
