package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easybake/internal/cache"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock { return &clock{t: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

var opts = cache.Options{Fresh: time.Minute, Retain: 5 * time.Minute}

func TestFetchServesFreshValueOnce(t *testing.T) {
	clk := newClock()
	s := cache.New(cache.WithClock(clk.Now))
	var calls atomic.Int32
	fetch := func(context.Context) (string, error) {
		calls.Add(1)
		return "v", nil
	}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		v, err := cache.Fetch(ctx, s, cache.K("products", "featured", "en"), opts, fetch)
		require.NoError(t, err)
		assert.Equal(t, "v", v)
	}
	assert.Equal(t, int32(1), calls.Load())

	clk.Advance(2 * time.Minute)
	_, err := cache.Fetch(ctx, s, cache.K("products", "featured", "en"), opts, fetch)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "stale value must refetch")
}

func TestFetchDedupsConcurrentCallers(t *testing.T) {
	s := cache.New()
	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := cache.Fetch(context.Background(), s, cache.K("cart"), cache.Options{}, fetch)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Equal(t, 42, v)
	}
}

func TestZeroFreshnessAlwaysRevalidates(t *testing.T) {
	s := cache.New()
	var calls atomic.Int32
	fetch := func(context.Context) (int, error) { return int(calls.Add(1)), nil }
	for i := 1; i <= 3; i++ {
		v, err := cache.Fetch(context.Background(), s, cache.K("cart"), cache.Options{Retain: time.Minute}, fetch)
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
}

func TestIdleIsDistinctFromEmpty(t *testing.T) {
	s := cache.New()
	k := cache.K("wishlist")
	assert.Equal(t, cache.StatusIdle, s.Peek(k).Status)

	_, err := cache.Fetch(context.Background(), s, k, opts, func(context.Context) ([]int, error) { return nil, nil })
	require.NoError(t, err)
	snap := s.Peek(k)
	assert.Equal(t, cache.StatusSuccess, snap.Status)
	assert.True(t, snap.HasValue)
}

func TestFetchErrorKeepsLastKnownGood(t *testing.T) {
	clk := newClock()
	s := cache.New(cache.WithClock(clk.Now))
	k := cache.K("orders", "list", 1)
	_, err := cache.Fetch(context.Background(), s, k, opts, func(context.Context) (string, error) { return "good", nil })
	require.NoError(t, err)

	clk.Advance(time.Hour)
	boom := errors.New("boom")
	_, err = cache.Fetch(context.Background(), s, k, opts, func(context.Context) (string, error) { return "", boom })
	require.ErrorIs(t, err, boom)

	snap := s.Peek(k)
	assert.Equal(t, cache.StatusError, snap.Status)
	assert.Equal(t, "good", snap.Value)
}

func TestInvalidatePrefix(t *testing.T) {
	s := cache.New()
	s.Set(cache.K("reviews", 12, "en", 1), "a")
	s.Set(cache.K("reviews", 12, "ar", 1), "b")
	s.Set(cache.K("reviews", 13, "en", 1), "c")
	s.Set(cache.K("reviews", 120, "en", 1), "d")

	assert.Equal(t, 2, s.Invalidate(cache.K("reviews", 12)))
	assert.True(t, s.Peek(cache.K("reviews", 12, "en", 1)).Stale)
	assert.False(t, s.Peek(cache.K("reviews", 13, "en", 1)).Stale)
	assert.False(t, s.Peek(cache.K("reviews", 120, "en", 1)).Stale)
}

func TestInvalidatedFetchIsRefetched(t *testing.T) {
	s := cache.New()
	k := cache.K("orders", "list", 1)
	var calls atomic.Int32
	fetch := func(context.Context) (int32, error) { return calls.Add(1), nil }

	_, err := cache.Fetch(context.Background(), s, k, opts, fetch)
	require.NoError(t, err)
	s.Invalidate(cache.K("orders"))
	v, err := cache.Fetch(context.Background(), s, k, opts, fetch)
	require.NoError(t, err)
	assert.Equal(t, int32(2), v)
}

func TestFetchResultDiscardedAfterConcurrentWrite(t *testing.T) {
	s := cache.New()
	k := cache.K("cart")
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = cache.Fetch(context.Background(), s, k, opts, func(context.Context) (string, error) {
			close(started)
			<-release
			return "from-server-before-write", nil
		})
	}()
	<-started
	s.Set(k, "optimistic")
	close(release)
	<-done

	assert.Equal(t, "optimistic", s.Peek(k).Value, spew.Sdump(s.Peek(k)))
}

func TestCanceledCallerStillPopulatesCache(t *testing.T) {
	s := cache.New()
	k := cache.K("addresses")
	release := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() {
		_, err := cache.Fetch(ctx, s, k, opts, func(fctx context.Context) (string, error) {
			<-release
			if fctx.Err() != nil {
				return "", fctx.Err()
			}
			return "addr", nil
		})
		errc <- err
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()
	require.ErrorIs(t, <-errc, context.Canceled)
	close(release)

	require.Eventually(t, func() bool { return s.Peek(k).Status == cache.StatusSuccess }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "addr", s.Peek(k).Value)
}

func TestOptimisticRollbackRestoresSnapshot(t *testing.T) {
	s := cache.New()
	k := cache.K("cart")
	s.Set(k, 2)

	op := cache.Apply(s, k, func(cur int, ok bool) (int, bool) { return 5, ok })
	require.True(t, op.Applied())
	assert.Equal(t, 5, s.Peek(k).Value)

	require.True(t, op.Rollback())
	assert.Equal(t, 2, s.Peek(k).Value)
	assert.False(t, op.Rollback(), "second rollback must not apply")
}

func TestOptimisticRollbackDoesNotClobberNewerWrite(t *testing.T) {
	s := cache.New()
	k := cache.K("cart")
	s.Set(k, 1)

	first := cache.Apply(s, k, func(cur int, ok bool) (int, bool) { return cur + 1, ok })
	second := cache.Apply(s, k, func(cur int, ok bool) (int, bool) { return cur + 10, ok })

	assert.False(t, first.Rollback())
	assert.Equal(t, 12, s.Peek(k).Value)
	assert.True(t, second.Commit(11))
	assert.Equal(t, 11, s.Peek(k).Value)
}

func TestApplyWithoutCachedValue(t *testing.T) {
	s := cache.New()
	op := cache.Apply(s, cache.K("cart"), func(cur int, ok bool) (int, bool) { return cur + 1, ok })
	assert.False(t, op.Applied())
	assert.False(t, op.Commit(3))
	assert.Equal(t, cache.StatusIdle, s.Peek(cache.K("cart")).Status)
}

func TestRollbackToAbsentValue(t *testing.T) {
	s := cache.New()
	k := cache.K("user")
	op := cache.Apply(s, k, func(cur string, ok bool) (string, bool) { return "guest-preview", true })
	require.True(t, op.Applied())
	require.True(t, op.Rollback())
	snap := s.Peek(k)
	assert.False(t, snap.HasValue)
	assert.Nil(t, snap.Value)
}

func TestSweepEvictsUnusedEntries(t *testing.T) {
	clk := newClock()
	s := cache.New(cache.WithClock(clk.Now))
	ctx := context.Background()
	short := cache.Options{Fresh: time.Minute, Retain: 10 * time.Minute}
	long := cache.Options{Fresh: time.Minute, Retain: time.Hour}
	_, _ = cache.Fetch(ctx, s, cache.K("cart"), short, func(context.Context) (int, error) { return 1, nil })
	_, _ = cache.Fetch(ctx, s, cache.K("categories", "list", "en"), long, func(context.Context) (int, error) { return 1, nil })

	clk.Advance(11 * time.Minute)
	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, cache.StatusIdle, s.Peek(cache.K("cart")).Status)
}

func TestRemove(t *testing.T) {
	s := cache.New()
	s.Set(cache.K("orders", "list", 1), 1)
	s.Set(cache.K("orders", "detail", 4), 1)
	s.Set(cache.K("user"), 1)
	assert.Equal(t, 2, s.Remove(cache.K("orders")))
	assert.Equal(t, 1, s.Len())
}
