// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"

	"github.com/taibuivan/crewdesk/internal/platform/sec"
)

// # Account Data Access

// AccountRepository defines the data access contract for accounts.
type AccountRepository interface {

	/*
		FindByID returns the account with the given ID, soft-deleted ones included.

		Returns:
		  - *Account: Hydrated entity
		  - error: apperr.NotFound or database failures
	*/
	FindByID(context context.Context, id string) (*Account, error)

	/*
		FindByEmail returns the live account with the given normalised email.

		Returns:
		  - *Account: Hydrated entity
		  - error: apperr.NotFound or database failures
	*/
	FindByEmail(context context.Context, email string) (*Account, error)

	/*
		Create persists a new account.

		Returns:
		  - error: apperr.Conflict when the email is taken
	*/
	Create(context context.Context, account *Account) error

	/*
		UpsertByEmail returns the live account for account.Email, creating it
		from account when absent. Used by the OAuth callback.
	*/
	UpsertByEmail(context context.Context, account *Account) (*Account, error)

	// UpdatePassword replaces only the account's password hash.
	UpdatePassword(context context.Context, accountID, newHash string) error

	// TouchLastLogin records a successful sign-in.
	TouchLastLogin(context context.Context, accountID string, at time.Time) error
}

// RoleLister loads the roles granted to an account.
type RoleLister interface {
	ListForAccount(context context.Context, accountID string) ([]sec.Role, error)
}

// # Session Data Access

// SessionRepository defines the data access contract for server-held sessions.
type SessionRepository interface {

	// Create persists a new session.
	Create(context context.Context, session *Session) error

	/*
		FindActive returns the unrevoked, unexpired session with tokenHash.

		Returns:
		  - *Session: Hydrated entity
		  - error: apperr.NotFound or database failures
	*/
	FindActive(context context.Context, tokenHash string, now time.Time) (*Session, error)

	// Revoke invalidates one session.
	Revoke(context context.Context, sessionID string, at time.Time) error

	// RevokeAll invalidates every live session of the account.
	RevokeAll(context context.Context, accountID string, at time.Time) error

	// DeleteExpired removes sessions that expired before now and reports how many.
	DeleteExpired(context context.Context, now time.Time) (int64, error)
}

// # Volatile Data Access

// ResetTokenRepository stores single-use password reset tokens.
type ResetTokenRepository interface {

	// Set stores token for accountID, valid for ttl.
	Set(context context.Context, token string, accountID string, ttl time.Duration) error

	/*
		Take returns the account ID of token and deletes it in one step, so a
		token can be redeemed at most once.

		Returns:
		  - string: Account ID
		  - error: apperr.NotFound when absent or expired
	*/
	Take(context context.Context, token string) (string, error)
}
