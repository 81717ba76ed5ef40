package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narrifyapp/narrify-playback/internal/store"
)

func newTestKV(t *testing.T) store.KV {
	t.Helper()
	s, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGetOrFetch_FetchesOnColdCache(t *testing.T) {
	c := New[string](newTestKV(t), "cache:test:", 5*time.Minute)

	fetches := 0
	got, fromCache, err := c.GetOrFetch(context.Background(), "k", func(context.Context) (string, error) {
		fetches++
		return "fresh", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "fresh", got)
	assert.False(t, fromCache)
	assert.Equal(t, 1, fetches)
}

func TestGetOrFetch_ServesCachedWithinTTL(t *testing.T) {
	c := New[string](newTestKV(t), "cache:test:", 5*time.Minute)
	ctx := context.Background()

	fetches := 0
	fetch := func(context.Context) (string, error) {
		fetches++
		return "fresh", nil
	}

	_, _, err := c.GetOrFetch(ctx, "k", fetch)
	require.NoError(t, err)

	got, fromCache, err := c.GetOrFetch(ctx, "k", fetch)
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)
	assert.True(t, fromCache)
	assert.Equal(t, 1, fetches, "second read must not hit the fetcher")
}

func TestGetOrFetch_RefetchesAfterTTLExpiry(t *testing.T) {
	c := New[string](newTestKV(t), "cache:test:", 5*time.Minute)
	ctx := context.Background()

	now := time.Now()
	c.now = func() time.Time { return now }

	fetches := 0
	fetch := func(context.Context) (string, error) {
		fetches++
		return "fresh", nil
	}

	_, _, err := c.GetOrFetch(ctx, "k", fetch)
	require.NoError(t, err)

	now = now.Add(5*time.Minute + time.Second)

	_, fromCache, err := c.GetOrFetch(ctx, "k", fetch)
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, 2, fetches)
}

func TestInvalidate_ForcesNextFetch(t *testing.T) {
	c := New[string](newTestKV(t), "cache:test:", 5*time.Minute)
	ctx := context.Background()

	fetches := 0
	fetch := func(context.Context) (string, error) {
		fetches++
		return "fresh", nil
	}

	_, _, err := c.GetOrFetch(ctx, "k", fetch)
	require.NoError(t, err)

	require.NoError(t, c.Invalidate("k"))

	_, fromCache, err := c.GetOrFetch(ctx, "k", fetch)
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, 2, fetches)
}

func TestGetOrFetch_FetchErrorLeavesCacheEmpty(t *testing.T) {
	c := New[string](newTestKV(t), "cache:test:", 5*time.Minute)
	ctx := context.Background()

	_, _, err := c.GetOrFetch(ctx, "k", func(context.Context) (string, error) {
		return "", assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	// A later successful fetch populates normally.
	got, fromCache, err := c.GetOrFetch(ctx, "k", func(context.Context) (string, error) {
		return "recovered", nil
	})
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, "recovered", got)
}

func TestGetOrFetch_DistinctKeysDoNotCollide(t *testing.T) {
	kv := newTestKV(t)
	c := New[int](kv, "cache:n:", 5*time.Minute)
	ctx := context.Background()

	a, _, err := c.GetOrFetch(ctx, "a", func(context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)
	b, _, err := c.GetOrFetch(ctx, "b", func(context.Context) (int, error) { return 2, nil })
	require.NoError(t, err)

	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
}
