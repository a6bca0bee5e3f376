// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account is the signed-in user's self-service area: profile, password
and the list of browsers holding a session.

# Architecture

  - Entities: SessionInfo (DTO). The account itself is [auth.Account].
  - Security: Every operation acts on the caller's own account; a session ID
    belonging to someone else behaves as if it did not exist.
*/
package account

import (
	"context"
	"time"

	"github.com/taibuivan/crewdesk/internal/users/auth"
)

// # Domain Entities

// SessionInfo is the transport view of a session. The token hash never leaves the store.
type SessionInfo struct {
	ID        string    `json:"id"`
	UserAgent string    `json:"userAgent"`
	IPAddress string    `json:"ipAddress"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	IsCurrent bool      `json:"isCurrent"`
}

// # Repository Contracts

// AccountRepository defines the persistence contract for the caller's account.
type AccountRepository interface {
	/*
		FindByID retrieves a live account.

		Returns:
		  - *auth.Account: Loaded account entity
		  - error: apperr.NotFound for unknown or deleted accounts
	*/
	FindByID(ctx context.Context, id string) (*auth.Account, error)

	// UpdateName changes the display name and returns the stored account.
	UpdateName(ctx context.Context, id, name string, at time.Time) (*auth.Account, error)

	// UpdatePassword replaces the password hash of a live account.
	UpdatePassword(ctx context.Context, id, hash string, at time.Time) error

	// SoftDelete flags the account as deleted. apperr.NotFound when already gone.
	SoftDelete(ctx context.Context, id string, at time.Time) error
}

// SessionRepository defines the visibility and revocation contract for the caller's sessions.
type SessionRepository interface {
	// ListActive returns unrevoked, unexpired sessions, newest first.
	ListActive(ctx context.Context, accountID string, now time.Time) ([]SessionInfo, error)

	/*
		Revoke ends one session owned by accountID.

		Returns:
		  - error: apperr.NotFound when the session is unknown, not owned or already revoked
	*/
	Revoke(ctx context.Context, accountID, sessionID string, at time.Time) error

	// RevokeOthers ends every session of accountID except keepID.
	RevokeOthers(ctx context.Context, accountID, keepID string, at time.Time) error

	// RevokeAll ends every session of accountID.
	RevokeAll(ctx context.Context, accountID string, at time.Time) error
}
