package repository

import (
	"context"
	"time"

	pkgredis "github.com/JideOgun/Pro-Dj-sub004/pkg/redis"
)

// DefaultSweepLockKey is shared by every replica running the sweep
const DefaultSweepLockKey = "booking:timeout-sweep:lock"

// RedisSweepLock implements SweepLock with a SETNX lock
type RedisSweepLock struct {
	client *pkgredis.Client
	key    string
	ttl    time.Duration
}

// NewRedisSweepLock creates a lock held for at most ttl
func NewRedisSweepLock(client *pkgredis.Client, key string, ttl time.Duration) *RedisSweepLock {
	if key == "" {
		key = DefaultSweepLockKey
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisSweepLock{client: client, key: key, ttl: ttl}
}

// TryAcquire implements SweepLock
func (l *RedisSweepLock) TryAcquire(ctx context.Context) (func(), bool, error) {
	lock, err := l.client.AcquireLock(ctx, l.key, l.ttl)
	if err != nil {
		return nil, false, err
	}
	if lock == nil {
		return nil, false, nil
	}

	release := func() {
		// the sweep context may already be cancelled
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = l.client.ReleaseLock(releaseCtx, lock)
	}
	return release, true, nil
}

var _ SweepLock = (*RedisSweepLock)(nil)
