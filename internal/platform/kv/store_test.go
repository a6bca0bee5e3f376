// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package kv_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/crewdesk/internal/platform/kv"
)

type counter struct {
	N int `json:"n"`
}

func newRedisStore(t *testing.T) *kv.Redis {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return kv.NewRedis(client)
}

// backends runs body against every Store implementation.
func backends(t *testing.T, body func(t *testing.T, store kv.Store)) {
	t.Run("memory", func(t *testing.T) { body(t, kv.NewMemory()) })
	t.Run("redis", func(t *testing.T) { body(t, newRedisStore(t)) })
}

func TestStore_GetSetDelete(t *testing.T) {
	backends(t, func(t *testing.T, store kv.Store) {
		ctx := context.Background()

		_, found, err := store.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, found)

		require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))
		value, found, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, []byte("v"), value)

		require.NoError(t, store.Delete(ctx, "k"))
		require.NoError(t, store.Delete(ctx, "k"))
		_, found, _ = store.Get(ctx, "k")
		assert.False(t, found)
	})
}

/*
TestStore_TakeIsSingleUse verifies that a taken key cannot be taken twice.
*/
func TestStore_TakeIsSingleUse(t *testing.T) {
	backends(t, func(t *testing.T, store kv.Store) {
		ctx := context.Background()
		require.NoError(t, kv.SetJSON(ctx, store, "token", counter{N: 7}, time.Minute))

		value, found, err := kv.TakeJSON[counter](ctx, store, "token")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, 7, value.N)

		_, found, err = kv.TakeJSON[counter](ctx, store, "token")
		require.NoError(t, err)
		assert.False(t, found)
	})
}

/*
TestStore_UpdateIsAtomic hammers one key from many goroutines and expects no lost increments.
*/
func TestStore_UpdateIsAtomic(t *testing.T) {
	backends(t, func(t *testing.T, store kv.Store) {
		ctx := context.Background()
		const workers = 10

		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := kv.UpdateJSON(ctx, store, "hits", func(current counter, _ bool) kv.Change[counter] {
					return kv.Change[counter]{Value: counter{N: current.N + 1}, TTL: time.Minute}
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		final, found, err := kv.GetJSON[counter](ctx, store, "hits")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, workers, final.N)
	})
}

func TestUpdateJSON_SkipAndRemove(t *testing.T) {
	backends(t, func(t *testing.T, store kv.Store) {
		ctx := context.Background()
		require.NoError(t, kv.SetJSON(ctx, store, "k", counter{N: 3}, time.Minute))

		kept, err := kv.UpdateJSON(ctx, store, "k", func(current counter, found bool) kv.Change[counter] {
			assert.True(t, found)
			return kv.Change[counter]{Skip: true}
		})
		require.NoError(t, err)
		assert.Equal(t, 3, kept.N)

		_, err = kv.UpdateJSON(ctx, store, "k", func(counter, bool) kv.Change[counter] {
			return kv.Change[counter]{Remove: true}
		})
		require.NoError(t, err)

		_, found, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, found)
	})
}

/*
TestMemory_ExpiryAndPrune verifies TTL expiry and the bounded sweep interval.
*/
func TestMemory_ExpiryAndPrune(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store := kv.NewMemory().WithClock(func() time.Time { return now })

	require.NoError(t, store.Set(ctx, "a", []byte("1"), 10*time.Second))
	require.NoError(t, store.Set(ctx, "b", []byte("2"), 10*time.Second))
	require.NoError(t, store.Set(ctx, "forever", []byte("3"), 0))

	// Expired but not yet swept: reads hide it, the map still holds the other.
	now = now.Add(20 * time.Second)
	_, found, _ := store.Get(ctx, "a")
	assert.False(t, found)
	assert.Equal(t, 2, store.Len())

	// Past the prune interval any operation sweeps everything expired.
	now = now.Add(time.Minute)
	_, _, _ = store.Get(ctx, "forever")
	assert.Equal(t, 1, store.Len())
}

func TestRedis_TTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	store := kv.NewRedis(client)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 5*time.Second))
	mr.FastForward(6 * time.Second)

	_, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}
