// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements sign-in, account creation, password recovery and
server-held sessions for crewdesk.

It defines the core domain entities (Account, Session) and the two sign-in
modes selected at deploy time: an OpenID Connect provider, or local email and
password credentials.

# Architecture

Both modes issue the same opaque session cookie, so the request gate and the
identity resolver only ever see [Sessions.Lookup].
*/
package auth

import (
	"time"
)

// # Domain Entities

// Account represents a registered crewdesk user.
type Account struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	PasswordHash  string     `json:"-"` // Empty for accounts created through OAuth.
	EmailVerified bool       `json:"emailVerified"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	DeletedAt     *time.Time `json:"-"`
}

// Session represents one signed-in browser.
type Session struct {
	ID        string     `json:"id"`
	AccountID string     `json:"accountId"`
	TokenHash string     `json:"-"` // SHA-256 of the cookie value.
	UserAgent string     `json:"userAgent"`
	IPAddress string     `json:"ipAddress"`
	ExpiresAt time.Time  `json:"expiresAt"`
	RevokedAt *time.Time `json:"revokedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// ActiveAt reports whether the session is usable at now.
func (session *Session) ActiveAt(now time.Time) bool {
	return session.RevokedAt == nil && now.Before(session.ExpiresAt)
}

// # Field Identifiers

// Form and JSON field names used by the credential pages.
const (
	FieldEmail       = "email"
	FieldPassword    = "password"
	FieldName        = "name"
	FieldToken       = "token"
	FieldCallbackURL = "callbackUrl"
)
