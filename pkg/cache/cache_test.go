package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quote struct {
	ID    string  `json:"id"`
	Price float64 `json:"price"`
}

func TestMemoryCacheTypedRoundTrip(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryCleanup(0))
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "q", quote{ID: "bitcoin", Price: 64000}, time.Minute))

	var got quote
	require.NoError(t, mc.Get(ctx, "q", &got))
	assert.Equal(t, quote{ID: "bitcoin", Price: 64000}, got)

	var s string
	require.NoError(t, mc.Set(ctx, "s", "plain", time.Minute))
	require.NoError(t, mc.Get(ctx, "s", &s))
	assert.Equal(t, "plain", s)

	assert.ErrorIs(t, mc.Get(ctx, "missing", &got), ErrCacheMiss)
}

func TestMemoryCacheExpiryAndEviction(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryMaxSize(2), WithMemoryCleanup(0))
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "short", 1, time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	var n int
	assert.ErrorIs(t, mc.Get(ctx, "short", &n), ErrCacheMiss)

	require.NoError(t, mc.Set(ctx, "a", 1, time.Minute))
	time.Sleep(time.Millisecond)
	require.NoError(t, mc.Set(ctx, "b", 2, time.Minute))
	time.Sleep(time.Millisecond)
	require.NoError(t, mc.Get(ctx, "a", &n))
	require.NoError(t, mc.Set(ctx, "c", 3, time.Minute))

	assert.Equal(t, 2, mc.Len())
	ok, _ := mc.Exists(ctx, "b")
	assert.False(t, ok, "least recently used key should be evicted")
	ok, _ = mc.Exists(ctx, "a", "c")
	assert.True(t, ok)
}

func TestRememberLoadsOnce(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryCleanup(0))
	defer mc.Close()

	var calls int32
	load := func(context.Context) ([]quote, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(10 * time.Millisecond)
		return []quote{{ID: "eth", Price: 3000}}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := Remember(ctx, mc, "coins:list", time.Minute, load)
			assert.NoError(t, err)
			assert.Len(t, got, 1)
		}()
	}
	wg.Wait()

	got, err := Remember(ctx, mc, "coins:list", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, "eth", got[0].ID)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRememberPropagatesLoadError(t *testing.T) {
	boom := errors.New("upstream down")
	_, err := Remember(context.Background(), nil, "k", time.Minute, func(context.Context) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New(Config{Driver: "memcached"})
	assert.Error(t, err)

	svc, err := New(Config{Driver: DriverMemory, MemoryMaxSize: 10})
	require.NoError(t, err)
	assert.NoError(t, svc.Close())
}

func TestGenerateKeyWithParams(t *testing.T) {
	assert.Equal(t, "price:btc:usd", GenerateKeyWithParams("price", "BTC", "usd"))
	assert.Equal(t, "pools:10", GenerateKeyWithParams("pools", 10))
}
