// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package ratelimit implements per-identifier fixed-window counters for the
credential endpoints.

Each window admits exactly Policy.Max requests per identifier; the first
request after the window closes starts a fresh one. Counters live in a
[kv.Store], so they are process-local with the memory backend and shared
across instances with Redis.
*/
package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/taibuivan/crewdesk/internal/platform/constants"
	"github.com/taibuivan/crewdesk/internal/platform/ctxutil"
	"github.com/taibuivan/crewdesk/internal/platform/kv"
	"github.com/taibuivan/crewdesk/internal/platform/metrics"
)

// Policy names a bucket and its window size.
type Policy struct {
	Bucket string
	Window time.Duration
	Max    int
}

// # Presets

var (
	// SignInIP caps credential sign-in attempts per client address.
	SignInIP = Policy{Bucket: "signin-ip", Window: constants.AuthWindow, Max: 20}

	// SignUp caps account creation per client address.
	SignUp = Policy{Bucket: "signup", Window: constants.AuthWindow, Max: 5}

	// ForgotPassword caps reset-mail requests per client address.
	ForgotPassword = Policy{Bucket: "forgot-password", Window: constants.AuthWindow, Max: 3}

	// ResetPassword caps reset-token submissions per client address.
	ResetPassword = Policy{Bucket: "reset-password", Window: constants.AuthWindow, Max: 5}
)

// window is the stored state of one bucket/identifier pair.
type window struct {
	Count   int       `json:"count"`
	ResetAt time.Time `json:"resetAt"`
}

// Limiter applies [Policy] values against a shared store.
type Limiter struct {
	store   kv.Store
	now     func() time.Time
	metrics *metrics.Metrics
}

// New creates a Limiter backed by store.
func New(store kv.Store) *Limiter {
	return &Limiter{store: store, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (limiter *Limiter) WithClock(now func() time.Time) *Limiter {
	limiter.now = now
	return limiter
}

// WithMetrics records refusals into m.
func (limiter *Limiter) WithMetrics(m *metrics.Metrics) *Limiter {
	limiter.metrics = m
	return limiter
}

/*
Allow reports whether identifier may make one more request under policy, and
counts it when it may.

A refused request does not extend or consume the window. When the store
fails the request is admitted and a warning is logged.
*/
func (limiter *Limiter) Allow(ctx context.Context, identifier string, policy Policy) bool {
	key := constants.KVPrefixRateLimit + policy.Bucket + ":" + identifier

	var allowed bool
	_, err := kv.UpdateJSON(ctx, limiter.store, key, func(current window, found bool) kv.Change[window] {
		now := limiter.now()

		// ── 1. Fresh window ─────────────────────────────────────────────
		if !found || !now.Before(current.ResetAt) {
			allowed = true
			return kv.Change[window]{
				Value: window{Count: 1, ResetAt: now.Add(policy.Window)},
				TTL:   policy.Window,
			}
		}

		// ── 2. Exhausted ────────────────────────────────────────────────
		if current.Count >= policy.Max {
			allowed = false
			return kv.Change[window]{Skip: true}
		}

		// ── 3. Count it ─────────────────────────────────────────────────
		allowed = true
		current.Count++
		return kv.Change[window]{Value: current, TTL: current.ResetAt.Sub(now)}
	})

	logger := ctxutil.GetLogger(ctx)
	if err != nil {
		logger.WarnContext(ctx, "ratelimit_store_failed",
			slog.String("bucket", policy.Bucket),
			slog.Any("error", err),
		)
		return true
	}

	if !allowed {
		limiter.metrics.RateLimitBlocked(policy.Bucket)
		logger.WarnContext(ctx, "ratelimit_blocked",
			slog.String("bucket", policy.Bucket),
			slog.String("identifier", identifier),
		)
	}
	return allowed
}
