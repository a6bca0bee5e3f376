// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// maxUpdateAttempts bounds optimistic retries in [Redis.Update].
const maxUpdateAttempts = 32

// Redis is a [Store] shared between instances.
type Redis struct {
	client *redis.Client
}

// NewRedis wraps an already connected client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Get implements [Store].
func (store *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := store.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("kv_get_failed: %w", err)
	}
	return value, true, nil
}

// Set implements [Store].
func (store *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := store.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("kv_set_failed: %w", err)
	}
	return nil
}

// Delete implements [Store].
func (store *Redis) Delete(ctx context.Context, key string) error {
	if err := store.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("kv_delete_failed: %w", err)
	}
	return nil
}

// Take implements [Store] with GETDEL.
func (store *Redis) Take(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := store.client.GetDel(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("kv_take_failed: %w", err)
	}
	return value, true, nil
}

/*
Update implements [Store] with an optimistic WATCH/MULTI transaction.

A concurrent write to key between the read and EXEC aborts the transaction
and fn is re-run against the fresh value.
*/
func (store *Redis) Update(ctx context.Context, key string, fn UpdateFunc) error {
	transaction := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		found := true
		if errors.Is(err, redis.Nil) {
			current, found = nil, false
		} else if err != nil {
			return err
		}

		mutation, err := fn(current, found)
		if err != nil {
			return err
		}
		if mutation.Skip {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if mutation.Remove {
				pipe.Del(ctx, key)
				return nil
			}
			pipe.Set(ctx, key, mutation.Value, mutation.TTL)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := store.client.Watch(ctx, transaction, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("kv_update_failed: %w", err)
		}
		return nil
	}
	return ErrConflict
}
