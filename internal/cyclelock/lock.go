// Package cyclelock makes background cycles exclusive across replicas with a redis lock.
package cyclelock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	goredislib "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keyPrefix = "pet-exchange:lock:"

// Locker hands out non-blocking locks that expire after ttl.
//
// ttl must exceed the longest cycle, otherwise a slow cycle may overlap with
// one on another replica.
type Locker struct {
	rs  *redsync.Redsync
	ttl time.Duration
}

// New returns locker backed by the redis client.
func New(client goredislib.UniversalClient, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &Locker{
		rs:  redsync.New(goredis.NewPool(client)),
		ttl: ttl,
	}
}

// TryLock tries once to take the named lock.
//
// A lock held elsewhere is reported with acquired false and no error.
func (l *Locker) TryLock(ctx context.Context, name string) (func(), bool, error) {
	mutex := l.rs.NewMutex(
		keyPrefix+name,
		redsync.WithExpiry(l.ttl),
		redsync.WithTries(1),
	)

	if err := mutex.LockContext(ctx); err != nil {
		var taken *redsync.ErrTaken
		if errors.Is(err, redsync.ErrFailed) || errors.As(err, &taken) ||
			strings.Contains(err.Error(), "lock already taken") {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("acquire lock %s: %w", name, err)
	}

	logger := zerolog.Ctx(ctx)

	// Release runs detached from ctx, which may already be cancelled on shutdown.
	unlock := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if ok, err := mutex.UnlockContext(releaseCtx); err != nil || !ok {
			logger.Warn().Err(err).Str("lock", name).Msg("release lock")
		}
	}

	return unlock, true, nil
}
