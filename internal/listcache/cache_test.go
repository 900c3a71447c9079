package listcache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listPayload struct {
	Names []string `json:"names"`
	Total int      `json:"total"`
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, "customers", time.Minute)
}

func TestFetchJSONPopulatesAndHits(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	key, err := c.Key(ctx, 1, "smith")
	require.NoError(t, err)

	calls := 0
	loader := func(context.Context) (interface{}, error) {
		calls++
		return listPayload{Names: []string{"Jane Smith"}, Total: 1}, nil
	}

	var first listPayload
	require.NoError(t, c.FetchJSON(ctx, key, &first, loader))
	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"Jane Smith"}, first.Names)

	var second listPayload
	require.NoError(t, c.FetchJSON(ctx, key, &second, loader))
	assert.Equal(t, 1, calls, "second fetch should be served from cache")
	assert.Equal(t, first, second)
}

func TestBumpInvalidatesEveryPage(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	before, err := c.Key(ctx, 1, "")
	require.NoError(t, err)

	require.NoError(t, c.Bump(ctx))

	after, err := c.Key(ctx, 1, "")
	require.NoError(t, err)
	assert.NotEqual(t, before, after, "bump must change the composed key")
}

func TestNilClientPassthrough(t *testing.T) {
	ctx := context.Background()
	c := New(nil, "sales", time.Minute)

	key, err := c.Key(ctx, 2, "rice")
	require.NoError(t, err)

	calls := 0
	loader := func(context.Context) (interface{}, error) {
		calls++
		return listPayload{Total: calls}, nil
	}

	var out listPayload
	require.NoError(t, c.FetchJSON(ctx, key, &out, loader))
	require.NoError(t, c.FetchJSON(ctx, key, &out, loader))
	assert.Equal(t, 2, calls, "passthrough mode always hits the loader")
}
