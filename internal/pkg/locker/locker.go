package locker

import (
	"context"
	"sync"
	"time"

	"ecoverse/internal/pkg/logging"

	"github.com/go-redsync/redsync/v4"
)

const (
	DefaultExpiry = 10 * time.Second
	DefaultTries  = 64
)

// Local serializes holders of the same key within one process.
type Local struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewLocal() *Local {
	return &Local{slots: map[string]chan struct{}{}}
}

func (l *Local) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.slots[key]
	if !ok {
		s = make(chan struct{}, 1)
		l.slots[key] = s
	}
	return s
}

func (l *Local) Lock(ctx context.Context, key string) (func(), error) {
	s := l.slot(key)
	select {
	case s <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-s }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Redsync locks across processes through Redis. A held mutex is extended
// every third of its expiry until released.
type Redsync struct {
	rs     *redsync.Redsync
	expiry time.Duration
	tries  int
}

func NewRedsync(rs *redsync.Redsync) *Redsync {
	return &Redsync{rs, DefaultExpiry, DefaultTries}
}

func (l *Redsync) Lock(ctx context.Context, key string) (func(), error) {
	mutex := l.rs.NewMutex(key, redsync.WithExpiry(l.expiry), redsync.WithTries(l.tries))
	if err := mutex.LockContext(ctx); err != nil {
		return nil, err
	}

	log := logging.Component("locker").With().Str("key", key).Logger()
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		ticker := time.NewTicker(l.expiry / 3)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if ok, err := mutex.ExtendContext(context.Background()); !ok || err != nil {
					log.Error().Err(err).Msg("extend lock")
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			<-stopped
			if ok, err := mutex.UnlockContext(context.Background()); !ok || err != nil {
				log.Error().Err(err).Msg("unlock")
			}
		})
	}, nil
}
