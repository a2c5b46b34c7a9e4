package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/Additional-Code/logistics/internal/config"
)

type mapStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *mapStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return v, nil
}

func (m *mapStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mapStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func TestNewStoreSelectsNoop(t *testing.T) {
	store, err := NewStore(fxtest.NewLifecycle(t), config.Config{Cache: config.Cache{Driver: "noop"}}, zap.NewNop())
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestNewStoreRejectsUnknownDriver(t *testing.T) {
	_, err := NewStore(fxtest.NewLifecycle(t), config.Config{Cache: config.Cache{Driver: "memcached"}}, zap.NewNop())
	assert.ErrorContains(t, err, "unsupported cache driver")
}

func TestJSONHelpersRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := &mapStore{data: map[string][]byte{}}

	type row struct{ Name string }
	require.NoError(t, SetJSON(ctx, store, "rows", []row{{Name: "Acme"}}, time.Minute))

	var got []row
	require.NoError(t, GetJSON(ctx, store, "rows", &got))
	assert.Equal(t, []row{{Name: "Acme"}}, got)

	require.NoError(t, DeleteAll(ctx, store, "rows", "absent"))
	assert.ErrorIs(t, GetJSON(ctx, store, "rows", &got), ErrCacheMiss)
}

func TestJSONHelpersToleratesNilStore(t *testing.T) {
	ctx := context.Background()
	var dest []string

	assert.ErrorIs(t, GetJSON(ctx, nil, "k", &dest), ErrCacheMiss)
	assert.NoError(t, SetJSON(ctx, nil, "k", dest, 0))
	assert.NoError(t, DeleteAll(ctx, nil, "k"))
}

func TestGetJSONReportsCorruptEntries(t *testing.T) {
	ctx := context.Background()
	store := &mapStore{data: map[string][]byte{"k": []byte("{")}}

	var dest map[string]any
	err := GetJSON(ctx, store, "k", &dest)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

type batchStore struct {
	mapStore
	batches [][]string
}

func (b *batchStore) DeleteMany(_ context.Context, keys ...string) error {
	b.batches = append(b.batches, keys)
	for _, k := range keys {
		delete(b.data, k)
	}
	return nil
}

func TestDeleteAllUsesBatchDelete(t *testing.T) {
	ctx := context.Background()
	store := &batchStore{mapStore: mapStore{data: map[string][]byte{"a": {1}, "b": {2}}}}

	require.NoError(t, DeleteAll(ctx, store, "a", "b"))
	assert.Equal(t, [][]string{{"a", "b"}}, store.batches)
	assert.Empty(t, store.data)
}

func TestRedisStoreStartsWhenUnreachable(t *testing.T) {
	cfg := config.Config{Cache: config.Cache{Driver: "redis", DefaultTTL: time.Minute}}
	cfg.Cache.Redis.Addr = "127.0.0.1:1"

	lc := fxtest.NewLifecycle(t)
	store, err := NewStore(lc, cfg, zap.NewNop())
	require.NoError(t, err)
	lc.RequireStart()
	defer lc.RequireStop()

	assert.NoError(t, store.Delete(context.Background(), ""))
	_, err = store.Get(context.Background(), "")
	assert.ErrorIs(t, err, ErrCacheMiss)
}
