// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Change is the typed counterpart of [Mutation] used by [UpdateJSON].
type Change[T any] struct {
	Value  T
	TTL    time.Duration
	Skip   bool
	Remove bool
}

// GetJSON reads key and decodes it into a T.
func GetJSON[T any](ctx context.Context, store Store, key string) (T, bool, error) {
	var value T

	raw, found, err := store.Get(ctx, key)
	if err != nil || !found {
		return value, false, err
	}

	if err := json.Unmarshal(raw, &value); err != nil {
		return value, false, fmt.Errorf("kv_decode_failed: %w", err)
	}
	return value, true, nil
}

// SetJSON encodes value and writes it under key.
func SetJSON(ctx context.Context, store Store, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kv_encode_failed: %w", err)
	}
	return store.Set(ctx, key, raw, ttl)
}

// TakeJSON atomically reads, removes and decodes key.
func TakeJSON[T any](ctx context.Context, store Store, key string) (T, bool, error) {
	var value T

	raw, found, err := store.Take(ctx, key)
	if err != nil || !found {
		return value, false, err
	}

	if err := json.Unmarshal(raw, &value); err != nil {
		return value, false, fmt.Errorf("kv_decode_failed: %w", err)
	}
	return value, true, nil
}

/*
UpdateJSON atomically transforms the T stored under key.

fn sees the zero T and found=false when the key is absent. The returned value
is what the key holds after the update (the current value when fn skips).
An undecodable stored value is treated as absent.
*/
func UpdateJSON[T any](ctx context.Context, store Store, key string, fn func(current T, found bool) Change[T]) (T, error) {
	var result T

	err := store.Update(ctx, key, func(raw []byte, found bool) (Mutation, error) {
		var current T
		if found {
			if err := json.Unmarshal(raw, &current); err != nil {
				var zero T
				current, found = zero, false
			}
		}

		change := fn(current, found)
		switch {
		case change.Remove:
			var zero T
			result = zero
			return Mutation{Remove: true}, nil
		case change.Skip:
			result = current
			return Mutation{Skip: true}, nil
		}

		encoded, err := json.Marshal(change.Value)
		if err != nil {
			return Mutation{}, fmt.Errorf("kv_encode_failed: %w", err)
		}
		result = change.Value
		return Mutation{Value: encoded, TTL: change.TTL}, nil
	})

	return result, err
}
