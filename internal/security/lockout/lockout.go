// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package lockout tracks failed credential sign-ins per account and locks the
account after repeated failures.

Entries are keyed by the trimmed, lower-cased email, so the lock follows the
account rather than the client address.
*/
package lockout

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/crewdesk/internal/platform/constants"
	"github.com/taibuivan/crewdesk/internal/platform/ctxutil"
	"github.com/taibuivan/crewdesk/internal/platform/kv"
	"github.com/taibuivan/crewdesk/internal/platform/metrics"
)

// entry is the stored failure state of one account.
type entry struct {
	FailedCount int       `json:"failedCount"`
	LockedUntil time.Time `json:"lockedUntil,omitzero"`
}

func (e entry) lockedAt(now time.Time) bool {
	return !e.LockedUntil.IsZero() && now.Before(e.LockedUntil)
}

func (e entry) lockExpiredAt(now time.Time) bool {
	return !e.LockedUntil.IsZero() && !now.Before(e.LockedUntil)
}

// Tracker records failures and answers whether an account may attempt sign-in.
type Tracker struct {
	store     kv.Store
	threshold int
	duration  time.Duration
	now       func() time.Time
	metrics   *metrics.Metrics
}

// New creates a Tracker with the default threshold and lock duration.
func New(store kv.Store) *Tracker {
	return &Tracker{
		store:     store,
		threshold: constants.LockoutThreshold,
		duration:  constants.LockoutDuration,
		now:       time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (tracker *Tracker) WithClock(now func() time.Time) *Tracker {
	tracker.now = now
	return tracker
}

// WithMetrics records failures and locks into m.
func (tracker *Tracker) WithMetrics(m *metrics.Metrics) *Tracker {
	tracker.metrics = m
	return tracker
}

// Normalize returns the lockout key for an email address.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func key(email string) string {
	return constants.KVPrefixLockout + Normalize(email)
}

/*
IsAllowed reports whether email may attempt a sign-in now.

An entry whose lock has passed is deleted. A store failure denies the attempt.
*/
func (tracker *Tracker) IsAllowed(ctx context.Context, email string) bool {
	current, found, err := kv.GetJSON[entry](ctx, tracker.store, key(email))
	if err != nil {
		ctxutil.GetLogger(ctx).ErrorContext(ctx, "lockout_store_failed", slog.Any("error", err))
		return false
	}
	if !found {
		return true
	}

	now := tracker.now()
	if current.lockedAt(now) {
		return false
	}

	if current.lockExpiredAt(now) {
		if err := tracker.store.Delete(ctx, key(email)); err != nil {
			ctxutil.GetLogger(ctx).WarnContext(ctx, "lockout_store_failed", slog.Any("error", err))
		}
	}
	return true
}

/*
RecordFailure counts one failed attempt for email from ip.

The count restarts at 1 once a previous lock has expired and does not move
while a lock is active. Reaching the threshold locks the account.
*/
func (tracker *Tracker) RecordFailure(ctx context.Context, email, ip string) {
	if ip == "" {
		ip = constants.UnknownClientIP
	}
	normalized := Normalize(email)
	logger := ctxutil.GetLogger(ctx)

	var engaged bool
	_, err := kv.UpdateJSON(ctx, tracker.store, key(email), func(current entry, found bool) kv.Change[entry] {
		now := tracker.now()
		engaged = false

		switch {
		case found && current.lockedAt(now):
			return kv.Change[entry]{Skip: true}
		case !found || current.lockExpiredAt(now):
			current = entry{FailedCount: 1}
		default:
			current.FailedCount++
		}

		if current.FailedCount >= tracker.threshold {
			current.LockedUntil = now.Add(tracker.duration)
			engaged = true
		}

		return kv.Change[entry]{Value: current, TTL: tracker.duration}
	})
	if err != nil {
		logger.ErrorContext(ctx, "lockout_store_failed", slog.Any("error", err))
	}

	tracker.metrics.SignInFailed()
	logger.WarnContext(ctx, "auth_signin_failed",
		slog.String("email", normalized),
		slog.String("ip", ip),
	)

	if engaged {
		tracker.metrics.LockoutEngaged()
		logger.WarnContext(ctx, "auth_lockout_engaged",
			slog.String("email", normalized),
			slog.Duration("duration", tracker.duration),
		)
	}
}

// RecordSuccess clears any failure state for email.
func (tracker *Tracker) RecordSuccess(ctx context.Context, email string) {
	if err := tracker.store.Delete(ctx, key(email)); err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "lockout_store_failed", slog.Any("error", err))
	}
}
