// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/crewdesk/internal/platform/apperr"
	"github.com/taibuivan/crewdesk/internal/platform/ctxutil"
	"github.com/taibuivan/crewdesk/internal/platform/sec"
	"github.com/taibuivan/crewdesk/internal/platform/validate"
	"github.com/taibuivan/crewdesk/internal/users/auth"
)

// Field names reported in validation details.
const (
	fieldName            = "name"
	fieldCurrentPassword = "currentPassword"
	fieldNewPassword     = "newPassword"
)

// # Service Layer

// Service orchestrates the caller's account and session management.
type Service struct {
	accountRepository AccountRepository
	sessionRepository SessionRepository
	now               func() time.Time
}

// NewService constructs a new [Service] with its repository dependencies.
func NewService(accountRepo AccountRepository, sessionRepo SessionRepository) *Service {
	return &Service{
		accountRepository: accountRepo,
		sessionRepository: sessionRepo,
		now:               time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (service *Service) WithClock(now func() time.Time) *Service {
	service.now = now
	return service
}

// # Profile Management

// GetProfile retrieves the caller's account.
func (service *Service) GetProfile(ctx context.Context, accountID string) (*auth.Account, error) {
	account, err := service.accountRepository.FindByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("account_service_get_profile_failed: %w", err)
	}
	return account, nil
}

// UpdateProfileInput defines the mutable subset of account fields.
type UpdateProfileInput struct {
	Name *string
}

/*
UpdateProfile applies a partial set of changes to the caller's account.

Returns:
  - *auth.Account: The updated account
  - error: apperr.ValidationError, apperr.NotFound or storage failures
*/
func (service *Service) UpdateProfile(ctx context.Context, accountID string, input UpdateProfileInput) (*auth.Account, error) {
	if input.Name == nil {
		return service.GetProfile(ctx, accountID)
	}

	name := strings.TrimSpace(*input.Name)
	if result := validate.ValidateName(name); !result.Valid {
		return nil, apperr.ValidationError("Validation failed", apperr.FieldError{Field: fieldName, Message: result.Error.Message()})
	}

	account, err := service.accountRepository.UpdateName(ctx, accountID, name, service.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("account_service_update_failed: %w", err)
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "account_profile_updated", slog.String("account_id", accountID))
	return account, nil
}

/*
ChangePassword replaces the caller's password after checking the current one.

Description: Accounts created through the OAuth provider have no local
password and are refused. On success every other session is revoked; the
session named by keepSessionID stays signed in.

Returns:
  - error: apperr.ValidationError on a wrong current password or weak new one
*/
func (service *Service) ChangePassword(ctx context.Context, accountID, keepSessionID, current, next string) error {
	account, err := service.accountRepository.FindByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("account_service_change_password_lookup_failed: %w", err)
	}

	if account.PasswordHash == "" {
		return apperr.ValidationError("Validation failed", apperr.FieldError{Field: fieldCurrentPassword, Message: "This account signs in with an external provider"})
	}
	if !sec.CheckPasswordHash(current, account.PasswordHash) {
		return apperr.ValidationError("Validation failed", apperr.FieldError{Field: fieldCurrentPassword, Message: "Incorrect password"})
	}
	if result := validate.ValidatePassword(next); !result.Valid {
		return apperr.ValidationError("Validation failed", apperr.FieldError{Field: fieldNewPassword, Message: result.Error.Message()})
	}

	hash, err := sec.HashPassword(next)
	if err != nil {
		return fmt.Errorf("account_service_hash_failed: %w", err)
	}

	now := service.now().UTC()
	if err := service.accountRepository.UpdatePassword(ctx, accountID, hash, now); err != nil {
		return fmt.Errorf("account_service_change_password_failed: %w", err)
	}
	if err := service.sessionRepository.RevokeOthers(ctx, accountID, keepSessionID, now); err != nil {
		return fmt.Errorf("account_service_change_password_revoke_failed: %w", err)
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "account_password_changed", slog.String("account_id", accountID))
	return nil
}

/*
DeleteAccount soft-deletes the caller's account.

Description: Flags the account as deleted and terminates all its sessions to
force a global sign-out. Role grants stay in place for the audit trail.
*/
func (service *Service) DeleteAccount(ctx context.Context, accountID string) error {
	now := service.now().UTC()

	if err := service.accountRepository.SoftDelete(ctx, accountID, now); err != nil {
		return fmt.Errorf("account_service_delete_failed: %w", err)
	}
	if err := service.sessionRepository.RevokeAll(ctx, accountID, now); err != nil {
		return fmt.Errorf("account_service_delete_revoke_failed: %w", err)
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "account_deleted", slog.String("account_id", accountID))
	return nil
}

// # Session Security

// ListSessions returns the caller's active sessions, flagging the current one.
func (service *Service) ListSessions(ctx context.Context, accountID, currentSessionID string) ([]SessionInfo, error) {
	sessions, err := service.sessionRepository.ListActive(ctx, accountID, service.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("account_service_list_sessions_failed: %w", err)
	}

	for i := range sessions {
		sessions[i].IsCurrent = sessions[i].ID == currentSessionID
	}
	return sessions, nil
}

// RevokeSession ends one of the caller's sessions.
func (service *Service) RevokeSession(ctx context.Context, accountID, sessionID string) error {
	if err := service.sessionRepository.Revoke(ctx, accountID, sessionID, service.now().UTC()); err != nil {
		return fmt.Errorf("account_service_revoke_session_failed: %w", err)
	}
	return nil
}

// RevokeOtherSessions signs out every browser except the current one.
func (service *Service) RevokeOtherSessions(ctx context.Context, accountID, currentSessionID string) error {
	if err := service.sessionRepository.RevokeOthers(ctx, accountID, currentSessionID, service.now().UTC()); err != nil {
		return fmt.Errorf("account_service_revoke_others_failed: %w", err)
	}
	return nil
}
