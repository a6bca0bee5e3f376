// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package identity resolves the signed-in caller of a request.

A [Resolver] turns the session cookie into a [sec.Identity] at most once per
request; the result is kept in the request's identity memo so handlers and
middleware can ask repeatedly without repeating the lookups.
*/
package identity

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/taibuivan/crewdesk/internal/platform/apperr"
	"github.com/taibuivan/crewdesk/internal/platform/ctxutil"
	"github.com/taibuivan/crewdesk/internal/platform/sec"
)

// SessionLookup maps a request to the subject of its session.
type SessionLookup interface {
	Lookup(request *http.Request) (subjectID string, ok bool, err error)
}

// Fetcher loads an identity with its roles.
type Fetcher interface {
	FindIdentity(ctx context.Context, subjectID string) (*sec.Identity, error)
}

// Resolver implements the caller lookup used by handlers and role guards.
type Resolver struct {
	sessions   SessionLookup
	identities Fetcher
	debug      *DebugBypass
}

// NewResolver creates a Resolver. debug may be nil.
func NewResolver(sessions SessionLookup, identities Fetcher, debug *DebugBypass) *Resolver {
	return &Resolver{sessions: sessions, identities: identities, debug: debug}
}

/*
Current returns the caller's identity, or nil when signed out.

Inside a request scope the first call does the work and later calls reuse
its result. Lookup failures, including panics in the session or account
stores, resolve to nil and are logged.
*/
func (resolver *Resolver) Current(request *http.Request) *sec.Identity {
	slot := ctxutil.GetIdentitySlot(request.Context())
	if slot == nil {
		return resolver.resolve(request)
	}
	return slot.Resolve(func() *sec.Identity { return resolver.resolve(request) })
}

// resolve treats errors and panics from the stores as "signed out".
func (resolver *Resolver) resolve(request *http.Request) (resolved *sec.Identity) {
	ctx := request.Context()
	logger := ctxutil.GetLogger(ctx)

	defer func() {
		if recovered := recover(); recovered != nil {
			logger.ErrorContext(ctx, "identity_resolution_failed", slog.String("stage", "panic"), slog.Any("panic", recovered))
			resolved = nil
		}
	}()

	// ── 1. Local debug identity ───────────────────────────────────────────
	if resolver.debug != nil && resolver.debug.Allowed(request) {
		return resolver.debug.Identity()
	}

	// ── 2. Session ────────────────────────────────────────────────────────
	subjectID, ok, err := resolver.sessions.Lookup(request)
	if err != nil {
		logger.ErrorContext(ctx, "identity_resolution_failed", slog.String("stage", "session"), slog.Any("error", err))
		return nil
	}
	if !ok {
		return nil
	}

	// ── 3. Account and roles ──────────────────────────────────────────────
	identity, err := resolver.identities.FindIdentity(ctx, subjectID)
	if err != nil {
		level := slog.LevelError
		if apperr.HasCode(err, "NOT_FOUND") {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, "identity_resolution_failed",
			slog.String("stage", "account"),
			slog.String("subject_id", subjectID),
			slog.Any("error", err),
		)
		return nil
	}

	if identity == nil || identity.IsDeleted() {
		return nil
	}
	return identity
}
