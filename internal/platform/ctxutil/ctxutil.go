// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxutil provides helpers for interacting with values stored in [context.Context].
package ctxutil

import (
	"context"
	"log/slog"
	"sync"

	"github.com/taibuivan/crewdesk/internal/platform/constants"
	"github.com/taibuivan/crewdesk/internal/platform/ctxkey"
	"github.com/taibuivan/crewdesk/internal/platform/sec"
)

// # Request Tracing

// WithRequestID returns a new context with the provided request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyRequestID, id)
}

// GetRequestID retrieves the request ID from the context.
// Returns an empty string if not found.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyRequestID).(string)
	return id
}

// WithClientIP returns a new context carrying the resolved client address.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyClientIP, ip)
}

// GetClientIP returns the client address stored by the RealIP middleware,
// or "unknown" when none was resolved.
func GetClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(ctxkey.KeyClientIP).(string)
	if ip == "" {
		return constants.UnknownClientIP
	}
	return ip
}

// # Structured Logging

// WithLogger returns a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger retrieves the logger from the context.
// If no logger is found, it returns the global default logger.
func GetLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(ctxkey.KeyLogger).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return logger
}

// # Identity & Access

/*
IdentitySlot memoises the caller's identity for the lifetime of one request.

The first [IdentitySlot.Resolve] runs its loader; later calls in the same
request return the stored result, nil included.
*/
type IdentitySlot struct {
	mutex    sync.Mutex
	resolved bool
	identity *sec.Identity
}

// Resolve returns the memoised identity, running load on first use.
func (slot *IdentitySlot) Resolve(load func() *sec.Identity) *sec.Identity {
	slot.mutex.Lock()
	defer slot.mutex.Unlock()

	if !slot.resolved {
		slot.identity = load()
		slot.resolved = true
	}
	return slot.identity
}

// Peek returns the identity if it was already resolved, without loading it.
func (slot *IdentitySlot) Peek() *sec.Identity {
	slot.mutex.Lock()
	defer slot.mutex.Unlock()
	return slot.identity
}

// WithIdentitySlot returns a new context carrying an empty [IdentitySlot].
func WithIdentitySlot(ctx context.Context) (context.Context, *IdentitySlot) {
	slot := &IdentitySlot{}
	return context.WithValue(ctx, ctxkey.KeyIdentitySlot, slot), slot
}

// GetIdentitySlot retrieves the request's [IdentitySlot], or nil outside a request scope.
func GetIdentitySlot(ctx context.Context) *IdentitySlot {
	slot, _ := ctx.Value(ctxkey.KeyIdentitySlot).(*IdentitySlot)
	return slot
}
