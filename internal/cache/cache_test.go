package cache_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"codeberg.org/mutker/fwectl/internal/cache"
	"codeberg.org/mutker/fwectl/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingleFlight(t *testing.T) {
	c := cache.New[int]()
	ctx := context.Background()

	var fetches atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	fetch := func(context.Context) (int, error) {
		fetches.Add(1)
		close(started)
		<-release

		return 42, nil
	}

	const readers = 8
	results := make([]int, readers)
	errs := make([]error, readers)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = c.GetOrUpdate(ctx, "thermal", time.Second, true, fetch)
	}()

	// Wait for the first fetch to be in flight, then pile on readers.
	<-started
	for i := 1; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.GetOrUpdate(ctx, "thermal", time.Second, true, func(context.Context) (int, error) {
				fetches.Add(1)
				return -1, nil
			})
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), fetches.Load(), "concurrent reads must share one fetch")
	for i := 0; i < readers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, 42, results[i])
	}
}

func TestLiveEntryServedWithoutFetch(t *testing.T) {
	c := cache.New[string]()
	ctx := context.Background()

	var fetches int
	fetch := func(context.Context) (string, error) {
		fetches++
		return "fresh", nil
	}

	first, err := c.GetOrUpdate(ctx, "power", time.Minute, true, fetch)
	require.NoError(t, err)
	second, err := c.GetOrUpdate(ctx, "power", time.Minute, true, fetch)
	require.NoError(t, err)

	assert.Equal(t, "fresh", first)
	assert.Equal(t, "fresh", second)
	assert.Equal(t, 1, fetches)
}

func TestExpiredEntryRefetched(t *testing.T) {
	c := cache.New[int]()
	ctx := context.Background()

	var fetches int
	fetch := func(context.Context) (int, error) {
		fetches++
		return fetches, nil
	}

	first, err := c.GetOrUpdate(ctx, "k", time.Millisecond, true, fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, first)

	time.Sleep(5 * time.Millisecond)

	second, err := c.GetOrUpdate(ctx, "k", time.Millisecond, true, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, second)
}

func TestErrorCachingOptIn(t *testing.T) {
	errFactory := errors.New()
	fetchErr := errFactory.New(errors.ErrUnavailable)
	ctx := context.Background()

	t.Run("cached errors suppress refetch until expiry", func(t *testing.T) {
		c := cache.New[int]()
		var fetches int
		fetch := func(context.Context) (int, error) {
			fetches++
			return 0, fetchErr
		}

		_, err := c.GetOrUpdate(ctx, "k", time.Minute, true, fetch)
		require.Error(t, err)
		_, err = c.GetOrUpdate(ctx, "k", time.Minute, true, fetch)
		require.Error(t, err)

		assert.Equal(t, 1, fetches, "failure should be served from cache")
	})

	t.Run("uncached errors force fresh attempts", func(t *testing.T) {
		c := cache.New[int]()
		var fetches int
		fetch := func(context.Context) (int, error) {
			fetches++
			return 0, fetchErr
		}

		_, err := c.GetOrUpdate(ctx, "k", time.Minute, false, fetch)
		require.Error(t, err)
		_, err = c.GetOrUpdate(ctx, "k", time.Minute, false, fetch)
		require.Error(t, err)

		assert.Equal(t, 2, fetches, "every probe should fetch")
	})
}

func TestErrorRelayedToAllWaiters(t *testing.T) {
	c := cache.New[int]()
	ctx := context.Background()
	errFactory := errors.New()
	fetchErr := errFactory.New(errors.ErrTimeout)

	started := make(chan struct{})
	release := make(chan struct{})

	go func() {
		_, _ = c.GetOrUpdate(ctx, "k", time.Second, false, func(context.Context) (int, error) {
			close(started)
			<-release

			return 0, fetchErr
		})
	}()

	<-started

	waiterErr := make(chan error, 1)
	go func() {
		_, err := c.GetOrUpdate(ctx, "k", time.Second, false, func(context.Context) (int, error) {
			return 99, nil
		})
		waiterErr <- err
	}()

	time.Sleep(10 * time.Millisecond)
	close(release)

	err := <-waiterErr
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrTimeout))
}

func TestInvalidate(t *testing.T) {
	c := cache.New[int]()
	ctx := context.Background()

	var fetches int
	fetch := func(context.Context) (int, error) {
		fetches++
		return fetches, nil
	}

	_, err := c.GetOrUpdate(ctx, "k", time.Minute, true, fetch)
	require.NoError(t, err)

	c.Invalidate("k")

	v, err := c.GetOrUpdate(ctx, "k", time.Minute, true, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}
