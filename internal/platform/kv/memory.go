// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package kv

import (
	"context"
	"sync"
	"time"

	"github.com/taibuivan/crewdesk/internal/platform/constants"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (entry memoryEntry) expired(now time.Time) bool {
	return !entry.expiresAt.IsZero() && !now.Before(entry.expiresAt)
}

// Memory is a process-local [Store]. Contents are lost on restart.
type Memory struct {
	mutex         sync.Mutex
	entries       map[string]memoryEntry
	now           func() time.Time
	pruneInterval time.Duration
	lastPrune     time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		entries:       make(map[string]memoryEntry),
		now:           time.Now,
		pruneInterval: constants.StorePruneInterval,
	}
}

// WithClock replaces the time source. Used by tests.
func (store *Memory) WithClock(now func() time.Time) *Memory {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	store.now = now
	store.lastPrune = now()
	return store
}

// Len returns the number of stored entries, expired ones included until swept.
func (store *Memory) Len() int {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	return len(store.entries)
}

// Get implements [Store].
func (store *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	value, found := store.lookup(key, store.tick())
	return value, found, nil
}

// Set implements [Store].
func (store *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	store.write(key, value, ttl, store.tick())
	return nil
}

// Delete implements [Store].
func (store *Memory) Delete(_ context.Context, key string) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	store.tick()
	delete(store.entries, key)
	return nil
}

// Take implements [Store].
func (store *Memory) Take(_ context.Context, key string) ([]byte, bool, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	value, found := store.lookup(key, store.tick())
	delete(store.entries, key)
	return value, found, nil
}

// Update implements [Store]. fn runs with the store lock held and must not call back into it.
func (store *Memory) Update(_ context.Context, key string, fn UpdateFunc) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	now := store.tick()
	current, found := store.lookup(key, now)

	mutation, err := fn(current, found)
	if err != nil {
		return err
	}

	switch {
	case mutation.Remove:
		delete(store.entries, key)
	case mutation.Skip:
	default:
		store.write(key, mutation.Value, mutation.TTL, now)
	}
	return nil
}

// # Internals (lock held)

func (store *Memory) lookup(key string, now time.Time) ([]byte, bool) {
	entry, ok := store.entries[key]
	if !ok {
		return nil, false
	}
	if entry.expired(now) {
		delete(store.entries, key)
		return nil, false
	}
	return entry.value, true
}

func (store *Memory) write(key string, value []byte, ttl time.Duration, now time.Time) {
	entry := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	}
	store.entries[key] = entry
}

// tick returns the current time and sweeps expired entries when the prune interval has elapsed.
func (store *Memory) tick() time.Time {
	now := store.now()
	if now.Sub(store.lastPrune) < store.pruneInterval {
		return now
	}

	store.lastPrune = now
	for key, entry := range store.entries {
		if entry.expired(now) {
			delete(store.entries, key)
		}
	}
	return now
}
