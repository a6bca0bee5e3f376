// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "errors"

// # OAuth

const (
	// StateIssuer is the issuer claim of OAuth state tokens.
	StateIssuer = "crewdesk"

	// DefaultAccountName is used when the provider omits a display name.
	DefaultAccountName = "Volunteer"
)

// OAuthScopes are requested from the provider on every sign-in.
var OAuthScopes = []string{"openid", "email", "profile"}

// # Outcomes
//
// Each outcome maps to one `error` query code on the credential pages.

var (
	ErrRateLimited        = errors.New("auth: too many requests")
	ErrLocked             = errors.New("auth: account temporarily locked")
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	ErrCaptcha            = errors.New("auth: captcha verification failed")
	ErrEmailTaken         = errors.New("auth: email already registered")
	ErrInvalidToken       = errors.New("auth: reset token invalid or expired")
	ErrOAuthFailed        = errors.New("auth: oauth sign-in failed")
)

// InputError rejects one form field. Code is the page error code.
type InputError struct {
	Field string
	Code  string
}

func (e *InputError) Error() string {
	return "auth: invalid " + e.Field + ": " + e.Code
}
