package resolve

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestCacheVersionInitialisesOnce(t *testing.T) {
	cache := newTestCache(t)

	ver, err := cache.Version(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), ver)

	again, err := cache.Version(context.Background())
	require.NoError(t, err)
	require.Equal(t, ver, again)
}

func TestCacheBumpChangesKeys(t *testing.T) {
	cache := newTestCache(t)

	before, err := cache.Key(context.Background(), 1, 2)
	require.NoError(t, err)

	require.NoError(t, cache.Bump(context.Background()))

	after, err := cache.Key(context.Background(), 1, 2)
	require.NoError(t, err)
	require.NotEqual(t, before, after)
}

func TestCacheFetchJSONCallsLoaderOnce(t *testing.T) {
	cache := newTestCache(t)
	loads := 0
	loader := func(ctx context.Context) (interface{}, error) {
		loads++
		return map[string]string{"hello": "world"}, nil
	}

	var first map[string]string
	require.NoError(t, cache.FetchJSON(context.Background(), "k", &first, loader))
	require.Equal(t, "world", first["hello"])

	var second map[string]string
	require.NoError(t, cache.FetchJSON(context.Background(), "k", &second, loader))
	require.Equal(t, first, second)
	require.Equal(t, 1, loads)
}

func TestCacheNilClientDegradesToLoader(t *testing.T) {
	var cache *Cache

	var out map[string]int
	err := cache.FetchJSON(context.Background(), "k", &out, func(ctx context.Context) (interface{}, error) {
		return map[string]int{"n": 7}, nil
	})
	require.NoError(t, err)
	require.Equal(t, 7, out["n"])

	require.NoError(t, cache.Bump(context.Background()))
}
