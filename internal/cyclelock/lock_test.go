package cyclelock

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredislib "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) (*Locker, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := goredislib.NewClient(&goredislib.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return New(client, time.Minute), mr
}

func TestTryLock(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()

	unlock, acquired, err := locker.TryLock(ctx, "reconciler:BTC")
	require.NoError(t, err)
	require.True(t, acquired)
	require.True(t, mr.Exists(keyPrefix+"reconciler:BTC"))

	// Another replica sees the lock as taken.
	_, acquired, err = locker.TryLock(ctx, "reconciler:BTC")
	require.NoError(t, err)
	require.False(t, acquired)

	// Networks lock independently.
	unlockETH, acquired, err := locker.TryLock(ctx, "reconciler:ERC20")
	require.NoError(t, err)
	require.True(t, acquired)
	unlockETH()

	unlock()
	require.False(t, mr.Exists(keyPrefix+"reconciler:BTC"))

	unlock, acquired, err = locker.TryLock(ctx, "reconciler:BTC")
	require.NoError(t, err)
	require.True(t, acquired)
	unlock()
}

func TestTryLockExpires(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()

	_, acquired, err := locker.TryLock(ctx, "rates")
	require.NoError(t, err)
	require.True(t, acquired)

	mr.FastForward(2 * time.Minute)

	_, acquired, err = locker.TryLock(ctx, "rates")
	require.NoError(t, err)
	require.True(t, acquired)
}

func TestTryLockRedisDown(t *testing.T) {
	locker, mr := newTestLocker(t)
	mr.Close()

	_, acquired, err := locker.TryLock(context.Background(), "reconciler:BTC")
	require.False(t, acquired)
	require.Error(t, err)
}

func TestUnlockLogsThroughCallerLogger(t *testing.T) {
	locker, mr := newTestLocker(t)

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	ctx, cancel := context.WithCancel(logger.WithContext(context.Background()))

	unlock, acquired, err := locker.TryLock(ctx, "reconciler:TRC20")
	require.NoError(t, err)
	require.True(t, acquired)

	// The lock expired before the cycle finished, and the caller context is gone.
	mr.FastForward(2 * time.Minute)
	cancel()

	unlock()
	require.Contains(t, buf.String(), "release lock")
	require.Contains(t, buf.String(), "reconciler:TRC20")
}
