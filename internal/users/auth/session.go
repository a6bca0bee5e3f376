// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/taibuivan/crewdesk/internal/platform/apperr"
	"github.com/taibuivan/crewdesk/internal/platform/constants"
	"github.com/taibuivan/crewdesk/internal/platform/ctxutil"
	"github.com/taibuivan/crewdesk/internal/platform/sec"
	"github.com/taibuivan/crewdesk/pkg/uuid"
)

// # Session Manager

// Sessions issues, resolves and revokes the opaque session cookie.
//
// It is the single session lookup shared by both sign-in modes.
type Sessions struct {
	repository SessionRepository
	secure     bool
	now        func() time.Time
}

// NewSessions creates a session manager. secure marks cookies Secure (production).
func NewSessions(repository SessionRepository, secure bool) *Sessions {
	return &Sessions{repository: repository, secure: secure, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (sessions *Sessions) WithClock(now func() time.Time) *Sessions {
	sessions.now = now
	return sessions
}

/*
Issue creates a session for accountID and sets the session cookie.

Only the SHA-256 of the token is stored; the raw value lives in the cookie.
*/
func (sessions *Sessions) Issue(writer http.ResponseWriter, request *http.Request, accountID string) error {
	token, err := sec.GenerateSecureToken(constants.SessionTokenLength)
	if err != nil {
		return fmt.Errorf("auth_session_token_failed: %w", err)
	}

	expiresAt := sessions.now().Add(constants.SessionTTL)
	session := &Session{
		ID:        uuid.New(),
		AccountID: accountID,
		TokenHash: sec.HashToken(token),
		UserAgent: request.UserAgent(),
		IPAddress: ctxutil.GetClientIP(request.Context()),
		ExpiresAt: expiresAt,
		CreatedAt: sessions.now(),
	}

	if err := sessions.repository.Create(request.Context(), session); err != nil {
		return fmt.Errorf("auth_session_create_failed: %w", err)
	}

	cookie := authCookie(constants.SessionCookieName, token, sessions.secure)
	cookie.Expires = expiresAt
	http.SetCookie(writer, cookie)
	return nil
}

/*
Lookup resolves the session cookie to its account ID.

Returns ok=false with a nil error when there is no cookie or the session is
unknown, revoked or expired. Store failures are returned as errors.
*/
func (sessions *Sessions) Lookup(request *http.Request) (string, bool, error) {
	session, err := sessions.current(request)
	if err != nil || session == nil {
		return "", false, err
	}
	return session.AccountID, true, nil
}

// Current returns the request's live session, or nil without an error when there is none.
func (sessions *Sessions) Current(request *http.Request) (*Session, error) {
	return sessions.current(request)
}

func (sessions *Sessions) current(request *http.Request) (*Session, error) {
	cookie, err := request.Cookie(constants.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	now := sessions.now()
	session, err := sessions.repository.FindActive(request.Context(), sec.HashToken(cookie.Value), now)
	if err != nil {
		if apperr.HasCode(err, "NOT_FOUND") {
			return nil, nil
		}
		return nil, fmt.Errorf("auth_session_lookup_failed: %w", err)
	}

	if !session.ActiveAt(now) {
		return nil, nil
	}
	return session, nil
}

// Revoke invalidates the request's session, if any, and clears the cookie.
func (sessions *Sessions) Revoke(writer http.ResponseWriter, request *http.Request) error {
	defer sessions.Clear(writer)

	session, err := sessions.current(request)
	if err != nil || session == nil {
		return err
	}

	if err := sessions.repository.Revoke(request.Context(), session.ID, sessions.now()); err != nil {
		return fmt.Errorf("auth_session_revoke_failed: %w", err)
	}
	return nil
}

// RevokeAll invalidates every session of accountID.
func (sessions *Sessions) RevokeAll(ctx context.Context, accountID string) error {
	if err := sessions.repository.RevokeAll(ctx, accountID, sessions.now()); err != nil {
		return fmt.Errorf("auth_session_revoke_all_failed: %w", err)
	}
	return nil
}

// Clear expires the session cookie in the browser.
func (sessions *Sessions) Clear(writer http.ResponseWriter) {
	cookie := authCookie(constants.SessionCookieName, "", sessions.secure)
	cookie.MaxAge = -1
	http.SetCookie(writer, cookie)
}

/*
Sweep deletes expired sessions every interval until ctx is cancelled.
*/
func (sessions *Sessions) Sweep(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := sessions.repository.DeleteExpired(ctx, sessions.now())
			if err != nil {
				logger.WarnContext(ctx, "session_sweep_failed", slog.Any("error", err))
				continue
			}
			if removed > 0 {
				logger.DebugContext(ctx, "session_sweep_done", slog.Int64("removed", removed))
			}
		}
	}
}
