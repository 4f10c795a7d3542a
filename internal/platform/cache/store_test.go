package cache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, time.Minute)
}

func TestFetchJSONCachesLoaderResult(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return map[string]string{"sku": "RES-10K"}, nil
	}

	key, err := store.BuildKey(ctx, "catalog", "part", "RES-10K")
	require.NoError(t, err)

	var first map[string]string
	require.NoError(t, store.FetchJSON(ctx, key, &first, loader))
	require.Equal(t, 1, calls)

	var second map[string]string
	require.NoError(t, store.FetchJSON(ctx, key, &second, loader))
	require.Equal(t, 1, calls)
	require.Equal(t, first, second)
}

func TestBumpInvalidatesDerivedKeys(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return []string{"a"}, nil
	}

	key, err := store.BuildKey(ctx, "catalog", "search", "q=res")
	require.NoError(t, err)
	var out []string
	require.NoError(t, store.FetchJSON(ctx, key, &out, loader))
	require.Equal(t, 1, calls)

	require.NoError(t, store.Bump(ctx))

	bumped, err := store.BuildKey(ctx, "catalog", "search", "q=res")
	require.NoError(t, err)
	require.NotEqual(t, key, bumped)

	require.NoError(t, store.FetchJSON(ctx, bumped, &out, loader))
	require.Equal(t, 2, calls)
}

func TestNilStoreDegradesToLoader(t *testing.T) {
	var store *Store
	ctx := context.Background()

	calls := 0
	var out string
	err := store.FetchJSON(ctx, "any", &out, func(context.Context) (any, error) {
		calls++
		return "direct", nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
	require.Equal(t, "direct", out)
	require.NoError(t, store.Bump(ctx))
}
