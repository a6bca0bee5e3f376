// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/taibuivan/crewdesk/internal/platform/apperr"
	"github.com/taibuivan/crewdesk/internal/platform/constants"
	"github.com/taibuivan/crewdesk/internal/platform/ctxutil"
	"github.com/taibuivan/crewdesk/internal/platform/mail"
	"github.com/taibuivan/crewdesk/internal/platform/sec"
	"github.com/taibuivan/crewdesk/internal/platform/validate"
	"github.com/taibuivan/crewdesk/internal/security/lockout"
	"github.com/taibuivan/crewdesk/internal/security/ratelimit"
	"github.com/taibuivan/crewdesk/pkg/uuid"
)

// # Contracts & Types

// RateLimiter admits or refuses one request for identifier under policy.
type RateLimiter interface {
	Allow(ctx context.Context, identifier string, policy ratelimit.Policy) bool
}

// LockoutTracker counts failed sign-ins per email.
type LockoutTracker interface {
	IsAllowed(ctx context.Context, email string) bool
	RecordFailure(ctx context.Context, email, ip string)
	RecordSuccess(ctx context.Context, email string)
}

// CaptchaVerifier checks a challenge token submitted with a form.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// SessionRevoker ends every session of an account.
type SessionRevoker interface {
	RevokeAll(ctx context.Context, accountID string) error
}

// ServiceConfig wires the credentials [Service].
type ServiceConfig struct {
	Accounts    AccountRepository
	ResetTokens ResetTokenRepository
	Sessions    SessionRevoker
	Limiter     RateLimiter
	Lockout     LockoutTracker
	Captcha     CaptchaVerifier
	Mailer      mail.Sender

	// BaseURL prefixes the reset link.
	BaseURL string

	// Production suppresses the reset-link log fallback.
	Production bool
}

// Service implements the local email and password flows.
type Service struct {
	cfg ServiceConfig
	now func() time.Time
}

// NewService constructs a credentials [Service].
func NewService(cfg ServiceConfig) *Service {
	return &Service{cfg: cfg, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (service *Service) WithClock(now func() time.Time) *Service {
	service.now = now
	return service
}

// # Sign-in Flow

// SignInInput holds one credentials sign-in attempt.
type SignInInput struct {
	Email        string
	Password     string
	CaptchaToken string
	ClientIP     string
}

/*
SignIn verifies credentials and returns the account on success.

Description: Checks run in a fixed order and the first refusal wins: per-IP
rate limit, account lockout, CAPTCHA, then the password. Unknown accounts
and wrong passwords both count towards the lockout and return the same
[ErrInvalidCredentials].

Returns:
  - *Account: The signed-in account
  - error: ErrRateLimited, ErrLocked, ErrCaptcha, ErrInvalidCredentials,
    *InputError or storage errors
*/
func (service *Service) SignIn(ctx context.Context, input SignInInput) (*Account, error) {

	// 1. Per-IP limit
	if !service.cfg.Limiter.Allow(ctx, input.ClientIP, ratelimit.SignInIP) {
		return nil, ErrRateLimited
	}

	email := lockout.Normalize(input.Email)
	if email == "" || input.Password == "" {
		return nil, &InputError{Field: FieldEmail, Code: constants.ErrCodeInvalidInput}
	}

	// 2. Lockout
	if !service.cfg.Lockout.IsAllowed(ctx, email) {
		return nil, ErrLocked
	}

	// 3. CAPTCHA
	if err := service.cfg.Captcha.Verify(ctx, input.CaptchaToken, input.ClientIP); err != nil {
		return nil, ErrCaptcha
	}

	// 4. Password
	account, err := service.cfg.Accounts.FindByEmail(ctx, email)
	if err != nil && !apperr.HasCode(err, "NOT_FOUND") {
		return nil, fmt.Errorf("auth_service_signin_lookup_failed: %w", err)
	}

	var storedHash string
	if account != nil {
		storedHash = account.PasswordHash
	}

	// CheckPasswordHash burns the same bcrypt time for a missing hash.
	if !sec.CheckPasswordHash(input.Password, storedHash) || account == nil {
		service.cfg.Lockout.RecordFailure(ctx, email, input.ClientIP)
		return nil, ErrInvalidCredentials
	}

	// 5. Bookkeeping
	service.cfg.Lockout.RecordSuccess(ctx, email)
	if err := service.cfg.Accounts.TouchLastLogin(ctx, account.ID, service.now()); err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "auth_last_login_failed", slog.Any("error", err))
	}

	return account, nil
}

// # Registration Flow

// SignUpInput holds the data required to create a local account.
type SignUpInput struct {
	Name         string
	Email        string
	Password     string
	CaptchaToken string
	ClientIP     string
}

/*
SignUp validates, hashes and persists a new account.

Returns:
  - *Account: Created entity
  - error: *InputError, ErrCaptcha, ErrEmailTaken or storage errors
*/
func (service *Service) SignUp(ctx context.Context, input SignUpInput) (*Account, error) {
	if err := service.cfg.Captcha.Verify(ctx, input.CaptchaToken, input.ClientIP); err != nil {
		return nil, ErrCaptcha
	}

	name := strings.TrimSpace(input.Name)
	email := lockout.Normalize(input.Email)

	if result := validate.ValidateName(name); !result.Valid {
		return nil, &InputError{Field: FieldName, Code: constants.ErrCodeInvalidInput}
	}
	if !validate.IsValidEmail(email) {
		return nil, &InputError{Field: FieldEmail, Code: constants.ErrCodeInvalidInput}
	}
	if result := validate.ValidatePassword(input.Password); !result.Valid {
		return nil, &InputError{Field: FieldPassword, Code: string(result.Error)}
	}

	// Verify email uniqueness up front; the unique index still guards the race.
	if _, err := service.cfg.Accounts.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !apperr.HasCode(err, "NOT_FOUND") {
		return nil, fmt.Errorf("auth_service_signup_lookup_failed: %w", err)
	}

	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	account := &Account{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: hashedPassword,
	}

	if err := service.cfg.Accounts.Create(ctx, account); err != nil {
		if apperr.HasCode(err, "CONFLICT") {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("auth_service_signup_failed: %w", err)
	}

	return account, nil
}

// # Password Recovery

/*
RequestPasswordReset issues a reset link when email belongs to an account.

Description: The caller shows the same confirmation whatever happens here,
so unknown emails and delivery failures are only logged. Without an SMTP
transport the link is logged outside production.

Returns:
  - error: ErrCaptcha or *InputError; nothing that reveals whether the account exists
*/
func (service *Service) RequestPasswordReset(ctx context.Context, email, captchaToken, clientIP string) error {
	if err := service.cfg.Captcha.Verify(ctx, captchaToken, clientIP); err != nil {
		return ErrCaptcha
	}

	email = lockout.Normalize(email)
	if !validate.IsValidEmail(email) {
		return &InputError{Field: FieldEmail, Code: constants.ErrCodeInvalidInput}
	}

	logger := ctxutil.GetLogger(ctx)

	account, err := service.cfg.Accounts.FindByEmail(ctx, email)
	if err != nil {
		if !apperr.HasCode(err, "NOT_FOUND") {
			logger.ErrorContext(ctx, "auth_password_reset_lookup_failed", slog.Any("error", err))
		}
		return nil
	}

	token, err := sec.GenerateSecureToken(constants.ResetTokenLength)
	if err != nil {
		logger.ErrorContext(ctx, "auth_password_reset_token_failed", slog.Any("error", err))
		return nil
	}

	if err := service.cfg.ResetTokens.Set(ctx, token, account.ID, constants.ResetTokenTTL); err != nil {
		logger.ErrorContext(ctx, "auth_password_reset_store_failed", slog.Any("error", err))
		return nil
	}

	link := service.resetLink(token)

	switch {
	case service.cfg.Mailer != nil && service.cfg.Mailer.Enabled():
		err := service.cfg.Mailer.Send(ctx, mail.Message{
			To:      account.Email,
			Subject: "Reset your password",
			Body:    "Click the link to reset your password: " + link + "\n\nThe link expires in 15 minutes.",
		})
		if err != nil {
			logger.ErrorContext(ctx, "auth_password_reset_mail_failed", slog.Any("error", err))
		}
	case !service.cfg.Production:
		logger.InfoContext(ctx, "auth_password_reset_link",
			slog.String("email", account.Email),
			slog.String("url", link),
		)
	}

	return nil
}

/*
ResetPassword completes the forgot-password flow.

Description: The new password is validated before the token is redeemed so
a rejected password leaves the link usable. The token is consumed in one
atomic step, then every session of the account is revoked.

Returns:
  - error: *InputError, ErrInvalidToken or storage errors
*/
func (service *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if strings.TrimSpace(token) == "" {
		return ErrInvalidToken
	}

	if result := validate.ValidatePassword(newPassword); !result.Valid {
		return &InputError{Field: FieldPassword, Code: string(result.Error)}
	}

	accountID, err := service.cfg.ResetTokens.Take(ctx, token)
	if err != nil {
		if apperr.HasCode(err, "NOT_FOUND") {
			return ErrInvalidToken
		}
		return fmt.Errorf("auth_service_reset_take_failed: %w", err)
	}

	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_reset_password_hash_failed: %w", err)
	}

	if err := service.cfg.Accounts.UpdatePassword(ctx, accountID, hashedPassword); err != nil {
		if apperr.HasCode(err, "NOT_FOUND") {
			return ErrInvalidToken
		}
		return fmt.Errorf("auth_service_reset_password_update_failed: %w", err)
	}

	if err := service.cfg.Sessions.RevokeAll(ctx, accountID); err != nil {
		return fmt.Errorf("auth_service_reset_revoke_failed: %w", err)
	}

	return nil
}

func (service *Service) resetLink(token string) string {
	query := url.Values{constants.QueryToken: {token}}
	return strings.TrimSuffix(service.cfg.BaseURL, "/") + constants.PathResetPassword + "?" + query.Encode()
}
