// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package kv provides the small expiring key-value store behind the security counters.

Two backends implement [Store]:

  - [Memory]: process-local map guarded by a mutex. Expired keys are swept
    lazily, at most once per prune interval.
  - [Redis]: shared between instances, expiry delegated to Redis TTLs and
    atomic updates done with WATCH/MULTI.

Values are opaque bytes at this level; [GetJSON], [SetJSON] and [UpdateJSON]
add JSON encoding for typed callers.
*/
package kv

import (
	"context"
	"errors"
	"time"
)

// ErrConflict is returned when an optimistic update kept losing races.
var ErrConflict = errors.New("kv: too many concurrent updates")

// Mutation describes what [Store.Update] should do with a key.
type Mutation struct {
	// Value is written when Skip and Remove are false.
	Value []byte

	// TTL bounds the lifetime of the written value. Zero means no expiry.
	TTL time.Duration

	// Skip leaves the key untouched.
	Skip bool

	// Remove deletes the key.
	Remove bool
}

// UpdateFunc computes the next state of a key from its current raw value.
type UpdateFunc func(current []byte, found bool) (Mutation, error)

// Store is an expiring byte store that is safe for concurrent use.
type Store interface {
	// Get returns the value of key, reporting false when absent or expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set writes value with the given TTL. Zero means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// Take atomically reads and removes key.
	Take(ctx context.Context, key string) ([]byte, bool, error)

	// Update runs fn against the current value and applies its mutation atomically.
	Update(ctx context.Context, key string, fn UpdateFunc) error
}
