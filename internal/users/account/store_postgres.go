// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/crewdesk/internal/platform/apperr"
	"github.com/taibuivan/crewdesk/internal/platform/database/schema"
	"github.com/taibuivan/crewdesk/internal/platform/dberr"
	"github.com/taibuivan/crewdesk/internal/users/auth"
)

// # Repository Structures

// PostgresAccountRepository implements [AccountRepository] using pgx.
type PostgresAccountRepository struct {
	pool *pgxpool.Pool
}

// PostgresSessionRepository implements [SessionRepository] using pgx.
type PostgresSessionRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository constructs a new PostgreSQL account repository.
func NewAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

// NewSessionRepository constructs a new PostgreSQL session repository.
func NewSessionRepository(pool *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{pool: pool}
}

var accountColumns = strings.Join(schema.UserAccount.Columns(), ", ")

func scanAccount(row pgx.Row) (*auth.Account, error) {
	account := &auth.Account{}
	err := row.Scan(
		&account.ID, &account.Email, &account.Name, &account.PasswordHash, &account.EmailVerified,
		&account.LastLoginAt, &account.CreatedAt, &account.UpdatedAt, &account.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return account, nil
}

// # AccountRepository Methods

// FindByID retrieves a live account by ID.
func (repository *PostgresAccountRepository) FindByID(ctx context.Context, id string) (*auth.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s IS NULL`,
		accountColumns, schema.UserAccount.Table, schema.UserAccount.ID, schema.UserAccount.DeletedAt)

	account, err := scanAccount(repository.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "Account")
	}
	return account, nil
}

/*
UpdateName changes the display name of a live account.

Returns:
  - *auth.Account: The stored row after the update
  - error: apperr.NotFound when no live account matches
*/
func (repository *PostgresAccountRepository) UpdateName(ctx context.Context, id, name string, at time.Time) (*auth.Account, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET %s = $2, %s = $3
		WHERE %s = $1 AND %s IS NULL
		RETURNING %s`,
		schema.UserAccount.Table, schema.UserAccount.Name, schema.UserAccount.UpdatedAt,
		schema.UserAccount.ID, schema.UserAccount.DeletedAt,
		accountColumns,
	)

	account, err := scanAccount(repository.pool.QueryRow(ctx, query, id, name, at))
	if err != nil {
		return nil, dberr.Wrap(err, "Account")
	}
	return account, nil
}

// UpdatePassword replaces the password hash of a live account.
func (repository *PostgresAccountRepository) UpdatePassword(ctx context.Context, id, hash string, at time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3 WHERE %s = $1 AND %s IS NULL`,
		schema.UserAccount.Table, schema.UserAccount.Password, schema.UserAccount.UpdatedAt,
		schema.UserAccount.ID, schema.UserAccount.DeletedAt)

	tag, err := repository.pool.Exec(ctx, query, id, hash, at)
	if err != nil {
		return fmt.Errorf("postgres_account_repo_update_password_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Account")
	}
	return nil
}

// SoftDelete flags a live account as deleted.
func (repository *PostgresAccountRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $2 WHERE %s = $1 AND %s IS NULL`,
		schema.UserAccount.Table, schema.UserAccount.DeletedAt, schema.UserAccount.UpdatedAt,
		schema.UserAccount.ID, schema.UserAccount.DeletedAt)

	tag, err := repository.pool.Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("postgres_account_repo_soft_delete_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Account")
	}
	return nil
}

// # SessionRepository Methods

// ListActive retrieves all usable sessions of an account, newest first.
func (repository *PostgresSessionRepository) ListActive(ctx context.Context, accountID string, now time.Time) ([]SessionInfo, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1 AND %s IS NULL AND %s > $2
		ORDER BY %s DESC`,
		schema.UserSession.ID, schema.UserSession.UserAgent, schema.UserSession.IPAddress,
		schema.UserSession.CreatedAt, schema.UserSession.ExpiresAt,
		schema.UserSession.Table,
		schema.UserSession.AccountID, schema.UserSession.RevokedAt, schema.UserSession.ExpiresAt,
		schema.UserSession.CreatedAt,
	)

	rows, err := repository.pool.Query(ctx, query, accountID, now)
	if err != nil {
		return nil, fmt.Errorf("postgres_session_repo_list_active_failed: %w", err)
	}
	defer rows.Close()

	sessions := []SessionInfo{}
	for rows.Next() {
		var session SessionInfo
		if err := rows.Scan(&session.ID, &session.UserAgent, &session.IPAddress, &session.CreatedAt, &session.ExpiresAt); err != nil {
			return nil, fmt.Errorf("postgres_session_repo_scan_failed: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// Revoke ends one session; the account filter enforces ownership.
func (repository *PostgresSessionRepository) Revoke(ctx context.Context, accountID, sessionID string, at time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $3 WHERE %s = $1 AND %s = $2 AND %s IS NULL`,
		schema.UserSession.Table, schema.UserSession.RevokedAt,
		schema.UserSession.ID, schema.UserSession.AccountID, schema.UserSession.RevokedAt)

	tag, err := repository.pool.Exec(ctx, query, sessionID, accountID, at)
	if err != nil {
		return fmt.Errorf("postgres_session_repo_revoke_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Session")
	}
	return nil
}

// RevokeOthers ends every session except keepID. An empty keepID keeps none.
func (repository *PostgresSessionRepository) RevokeOthers(ctx context.Context, accountID, keepID string, at time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $3 WHERE %s = $1 AND %s::text <> $2 AND %s IS NULL`,
		schema.UserSession.Table, schema.UserSession.RevokedAt,
		schema.UserSession.AccountID, schema.UserSession.ID, schema.UserSession.RevokedAt)

	if _, err := repository.pool.Exec(ctx, query, accountID, keepID, at); err != nil {
		return fmt.Errorf("postgres_session_repo_revoke_others_failed: %w", err)
	}
	return nil
}

// RevokeAll ends every session of the account.
func (repository *PostgresSessionRepository) RevokeAll(ctx context.Context, accountID string, at time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE %s = $1 AND %s IS NULL`,
		schema.UserSession.Table, schema.UserSession.RevokedAt,
		schema.UserSession.AccountID, schema.UserSession.RevokedAt)

	if _, err := repository.pool.Exec(ctx, query, accountID, at); err != nil {
		return fmt.Errorf("postgres_session_repo_revoke_all_failed: %w", err)
	}
	return nil
}
