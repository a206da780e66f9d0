package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"po-bridge-api-server/config"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
	err  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.data[key] = value.(string)
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Exists(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	store := &RedisStore{client: fake}

	require.NoError(t, store.Create(ctx, "sid-1", "user-1", time.Hour))
	assert.Equal(t, "user-1", fake.data[Key("sid-1")])
	assert.Equal(t, time.Hour, fake.ttls[Key("sid-1")])

	ok, err := store.Exists(ctx, "sid-1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Revoke(ctx, "sid-1"))
	ok, err = store.Exists(ctx, "sid-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStorePropagatesErrors(t *testing.T) {
	fake := newFakeRedis()
	fake.err = errors.New("connection refused")
	store := &RedisStore{client: fake}

	assert.Error(t, store.Create(context.Background(), "sid", "u", time.Hour))
	_, err := store.Exists(context.Background(), "sid")
	assert.Error(t, err)
}

func TestRedisStoreRequiresSessionID(t *testing.T) {
	store := &RedisStore{client: newFakeRedis()}
	assert.Error(t, store.Create(context.Background(), " ", "u", time.Hour))
}

func TestMemoryStoreExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Create(ctx, "sid", "u", time.Minute))
	ok, err := store.Exists(ctx, "sid")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	ok, err = store.Exists(ctx, "sid")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreRevoke(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Create(ctx, "sid", "u", time.Hour))
	require.NoError(t, store.Revoke(ctx, "sid"))
	ok, err := store.Exists(ctx, "sid")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewRedisClientRequiresAddress(t *testing.T) {
	_, err := NewRedisClient(context.Background(), config.RedisConfig{})
	assert.Error(t, err)
}
