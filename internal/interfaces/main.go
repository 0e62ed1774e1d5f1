package interfaces

import (
	"context"

	"github.com/go-redis/redis_rate/v10"
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) error
}

// Locker hands out mutual exclusion scopes by key. The returned func releases the lock.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// Notifier delivers best-effort messages to administrators.
type Notifier interface {
	NotifyAdmins(ctx context.Context, text string) error
}
