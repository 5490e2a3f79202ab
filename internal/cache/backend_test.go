package cache_test

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easybake/internal/cache"
)

type memBackend struct {
	mu   sync.Mutex
	data map[string][]byte
	ttl  map[string]time.Duration
}

func newMemBackend() *memBackend {
	return &memBackend{data: map[string][]byte{}, ttl: map[string]time.Duration{}}
}

func (m *memBackend) Load(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	return b, ok, nil
}

func (m *memBackend) Save(_ context.Context, key string, data []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = data
	m.ttl[key] = ttl
	return nil
}

type product struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func TestSharedValuesHydrateOtherStores(t *testing.T) {
	l2 := newMemBackend()
	clk := newClock()
	k := cache.K("products", "featured", "en")
	o := cache.Options{Fresh: time.Hour, Retain: 2 * time.Hour, Shared: true}
	var calls atomic.Int32
	fetch := func(context.Context) ([]product, error) {
		calls.Add(1)
		return []product{{ID: 1, Name: "Ma'amoul"}}, nil
	}

	a := cache.New(cache.WithBackend(l2), cache.WithClock(clk.Now))
	_, err := cache.Fetch(context.Background(), a, k, o, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, l2.ttl[k.String()])

	b := cache.New(cache.WithBackend(l2), cache.WithClock(clk.Now))
	got, err := cache.Fetch(context.Background(), b, k, o, fetch)
	require.NoError(t, err)
	assert.Equal(t, []product{{ID: 1, Name: "Ma'amoul"}}, got)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSharedValueOlderThanFreshnessIsRefetched(t *testing.T) {
	l2 := newMemBackend()
	clk := newClock()
	k := cache.K("categories", "list", "ar")
	o := cache.Options{Fresh: time.Minute, Retain: time.Hour, Shared: true}
	var calls atomic.Int32
	fetch := func(context.Context) (int32, error) { return calls.Add(1), nil }

	_, err := cache.Fetch(context.Background(), cache.New(cache.WithBackend(l2), cache.WithClock(clk.Now)), k, o, fetch)
	require.NoError(t, err)
	clk.Advance(5 * time.Minute)

	v, err := cache.Fetch(context.Background(), cache.New(cache.WithBackend(l2), cache.WithClock(clk.Now)), k, o, fetch)
	require.NoError(t, err)
	assert.Equal(t, int32(2), v)
}

func TestPrivateValuesStayOutOfL2(t *testing.T) {
	l2 := newMemBackend()
	s := cache.New(cache.WithBackend(l2))
	_, err := cache.Fetch(context.Background(), s, cache.K("cart"), cache.Options{Retain: time.Minute}, func(context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)
	assert.Empty(t, l2.data)
}

func TestRedisBackend(t *testing.T) {
	url := os.Getenv("EASYBAKE_TEST_REDIS_URL")
	if url == "" {
		t.Skip("EASYBAKE_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	rdb, err := cache.OpenRedis(ctx, url)
	require.NoError(t, err)
	defer rdb.Close()

	r := cache.NewRedis(rdb, "easybake:test:")
	_, ok, err := r.Load(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Save(ctx, "k", []byte(`{"a":1}`), time.Minute))
	b, ok, err := r.Load(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(b))
}
