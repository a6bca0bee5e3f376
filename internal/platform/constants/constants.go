// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Security: Cookie names, lockout policy and header names.
  - Routing: Public page paths shared by the gate and the page handlers.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "crewdesk"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP on the JSON API.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the API throttle.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often idle throttle entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute

	// StorePruneInterval bounds how often the in-memory kv store sweeps expired keys.
	StorePruneInterval = 60 * time.Second

	// AuthWindow is the fixed window shared by every auth endpoint limit.
	AuthWindow = 15 * time.Minute
)

// # Login Lockout

const (
	// LockoutThreshold is the number of failed sign-ins that locks an account.
	LockoutThreshold = 5

	// LockoutDuration is how long a locked account stays locked.
	LockoutDuration = 15 * time.Minute
)

// # Authentication

const (
	// SessionCookieName holds the opaque session token.
	SessionCookieName = "crew_session"

	// OAuthNonceCookieName binds an OAuth state token to the browser that started the flow.
	OAuthNonceCookieName = "crew_oauth_nonce"

	// SessionTTL is how long an issued session remains valid.
	SessionTTL = 7 * 24 * time.Hour

	// SessionSweepInterval is how often expired sessions are deleted.
	SessionSweepInterval = 1 * time.Hour

	// SessionTokenLength is the byte length of the random session token.
	SessionTokenLength = 32

	// ResetTokenTTL is how long a password reset token remains valid.
	ResetTokenTTL = 15 * time.Minute

	// ResetTokenLength is the byte length of the random password reset token.
	ResetTokenLength = 32

	// OAuthStateTTL bounds the time between starting and completing an OAuth sign-in.
	OAuthStateTTL = 10 * time.Minute

	// CaptchaTimeout is the network deadline for CAPTCHA verification.
	CaptchaTimeout = 5 * time.Second
)

// # HTTP Headers

const (
	HeaderXRequestID      = "X-Request-ID"
	HeaderXRealIP         = "X-Real-IP"
	HeaderXForwardedFor   = "X-Forwarded-For"
	HeaderCFConnectingIP  = "CF-Connecting-IP"
	HeaderOrigin          = "Origin"
	HeaderXPathname       = "X-Pathname"
	UnknownClientIP       = "unknown"
	QueryCallbackURL      = "callbackUrl"
	QueryError            = "error"
	QueryToken            = "token"
	QuerySent             = "sent"
	DefaultRedirectTarget = "/"
)

// # Page Routes

const (
	PathHome           = "/"
	PathSignIn         = "/signin"
	PathSignUp         = "/signup"
	PathSignOut        = "/signout"
	PathForgotPassword = "/forgot-password"
	PathResetPassword  = "/reset-password"
	PathAPIPrefix      = "/api"
	PathOAuthCallback  = "/api/auth/oauth/callback"
)

// # Error Codes
//
// Codes carried in the `error` query parameter of auth page redirects.
// Unknown accounts and wrong passwords share [ErrCodeInvalidCredentials].

const (
	ErrCodeRateLimit          = "rate_limit"
	ErrCodeLocked             = "locked"
	ErrCodeInvalidCredentials = "invalid_credentials"
	ErrCodeCaptcha            = "captcha"
	ErrCodeInvalidInput       = "invalid_input"
	ErrCodeEmailTaken         = "email_taken"
	ErrCodeInvalidToken       = "invalid_token"
	ErrCodeOAuthFailed        = "oauth_failed"
	ErrCodeServer             = "server_error"
)

// # JSON Field Identifiers

const (
	FieldCode  = "code"
	FieldError = "error"
)

// # Key-Value Prefixes (Cache Taxonomy)

const (
	KVPrefixRateLimit  = "crew:ratelimit:"
	KVPrefixLockout    = "crew:lockout:"
	KVPrefixResetToken = "crew:reset_token:"
)
