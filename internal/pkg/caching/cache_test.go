package caching

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Name  string
	Value int
}

func TestUseCacheCallsOnceUntilDeleted(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	caches := map[string]func() (*CacheRedis, error){
		"local": func() (*CacheRedis, error) { return NewCacheRedis(nil, true) },
		"redis": func() (*CacheRedis, error) { return NewCacheRedis(client, false) },
	}

	for name, build := range caches {
		t.Run(name, func(t *testing.T) {
			c, err := build()
			require.NoError(t, err)
			ctx := context.Background()

			calls := 0
			load := func() ([]entry, error) {
				calls++
				return []entry{{Name: "water-bottle", Value: calls}}, nil
			}

			first, err := UseCache(ctx, c, name+":rewards", time.Minute, load)
			require.NoError(t, err)
			second, err := UseCache(ctx, c, name+":rewards", time.Minute, load)
			require.NoError(t, err)

			assert.Equal(t, 1, calls)
			assert.Equal(t, first, second)

			require.NoError(t, c.Delete(ctx, name+":rewards"))
			third, err := UseCache(ctx, c, name+":rewards", time.Minute, load)
			require.NoError(t, err)
			assert.Equal(t, 2, calls)
			assert.Equal(t, 2, third[0].Value)
		})
	}
}

func TestUseCacheDoesNotStoreErrors(t *testing.T) {
	c, err := NewCacheRedis(nil, true)
	require.NoError(t, err)
	ctx := context.Background()

	boom := errors.New("boom")
	_, err = UseCache(ctx, c, "k", time.Minute, func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	v, err := UseCache(ctx, c, "k", time.Minute, func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestDeleteMissingKey(t *testing.T) {
	c, err := NewCacheRedis(nil, true)
	require.NoError(t, err)
	assert.NoError(t, c.Delete(context.Background(), "missing"))
}
