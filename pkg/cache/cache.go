package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Service is the narrow key-value surface the engine consumes: get, set, and a
// scoped lock lease. Everything else the backing store can do is deliberately
// not exposed.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// Lease acquires a lock lease on key and returns a release function. The
// release function is safe to call on every exit path, including after the
// lease has already expired server-side.
func Lease(ctx context.Context, s Service, key string, ttl time.Duration) (func(), bool, error) {
	ok, err := s.TryLock(ctx, key, ttl)
	if err != nil || !ok {
		return func() {}, ok, err
	}
	released := false
	return func() {
		if released {
			return
		}
		released = true
		// Release with a fresh context so cancellation of the request does
		// not leak the lease until TTL expiry.
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.Unlock(rctx, key)
	}, true, nil
}
