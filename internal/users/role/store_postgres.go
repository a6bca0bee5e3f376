// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package role

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/crewdesk/internal/platform/database/schema"
	"github.com/taibuivan/crewdesk/internal/platform/dberr"
	"github.com/taibuivan/crewdesk/internal/platform/postgres"
	"github.com/taibuivan/crewdesk/internal/platform/sec"
)

// querier is the subset shared by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// # Repository Implementation

// PostgresRepository implements [Repository] on users.role.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a Postgres role repository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// scopeMatch matches a role by kind and nullable scope columns, starting at
// placeholder $2 ($1 is the account).
var scopeMatch = fmt.Sprintf(
	`%s = $1 AND %s = $2::users.role_kind AND %s IS NOT DISTINCT FROM $3::uuid AND %s IS NOT DISTINCT FROM $4::uuid`,
	schema.UserRole.AccountID, schema.UserRole.Kind, schema.UserRole.EventID, schema.UserRole.TeamID,
)

// nullable maps an empty scope to SQL NULL.
func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// ListForAccount implements auth.RoleLister.
func (repository *PostgresRepository) ListForAccount(ctx context.Context, accountID string) ([]sec.Role, error) {
	grants, err := repository.ListGrants(ctx, accountID)
	if err != nil {
		return nil, err
	}

	roles := make([]sec.Role, 0, len(grants))
	for _, grant := range grants {
		roles = append(roles, grant.Role)
	}
	return roles, nil
}

/*
ListGrants returns every grant of accountID ordered by creation.

Parameters:
  - ctx: context.Context
  - accountID: string (UUID)

Returns:
  - []*Grant: Possibly empty
  - error: Database failures
*/
func (repository *PostgresRepository) ListGrants(ctx context.Context, accountID string) ([]*Grant, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s::text, COALESCE(%s::text, ''), COALESCE(%s::text, ''), %s::text, %s
		FROM %s
		WHERE %s = $1
		ORDER BY %s, %s`,
		schema.UserRole.ID, schema.UserRole.AccountID, schema.UserRole.Kind,
		schema.UserRole.EventID, schema.UserRole.TeamID, schema.UserRole.GrantedBy, schema.UserRole.CreatedAt,
		schema.UserRole.Table,
		schema.UserRole.AccountID,
		schema.UserRole.CreatedAt, schema.UserRole.ID,
	)

	rows, err := repository.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("postgres_role_repo_list_failed: %w", err)
	}
	defer rows.Close()

	grants := []*Grant{}
	for rows.Next() {
		grant := &Grant{}
		var kind string
		if err := rows.Scan(
			&grant.ID, &grant.AccountID, &kind,
			&grant.Role.EventID, &grant.Role.TeamID,
			&grant.GrantedBy, &grant.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres_role_repo_scan_failed: %w", err)
		}
		grant.Role.Kind = sec.RoleKind(kind)
		grants = append(grants, grant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_role_repo_rows_failed: %w", err)
	}
	return grants, nil
}

// InTx runs fn in a transaction through [postgres.WithTx].
func (repository *PostgresRepository) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return postgres.WithTx(ctx, repository.pool, func(tx pgx.Tx) error {
		return fn(&postgresTx{querier: tx})
	})
}

// # Transaction Implementation

type postgresTx struct {
	querier querier
}

func (tx *postgresTx) exists(ctx context.Context, label, query string, args ...any) (bool, error) {
	var found bool
	if err := tx.querier.QueryRow(ctx, "SELECT EXISTS ("+query+")", args...).Scan(&found); err != nil {
		return false, fmt.Errorf("postgres_role_repo_%s_failed: %w", label, err)
	}
	return found, nil
}

func (tx *postgresTx) AccountExists(ctx context.Context, accountID string) (bool, error) {
	return tx.exists(ctx, "account_exists", fmt.Sprintf(
		`SELECT 1 FROM %s WHERE %s = $1 AND %s IS NULL`,
		schema.UserAccount.Table, schema.UserAccount.ID, schema.UserAccount.DeletedAt,
	), accountID)
}

func (tx *postgresTx) EventExists(ctx context.Context, eventID string) (bool, error) {
	return tx.exists(ctx, "event_exists", fmt.Sprintf(
		`SELECT 1 FROM %s WHERE %s = $1`,
		schema.CoreEvent.Table, schema.CoreEvent.ID,
	), eventID)
}

func (tx *postgresTx) TeamInEvent(ctx context.Context, eventID, teamID string) (bool, error) {
	return tx.exists(ctx, "team_in_event", fmt.Sprintf(
		`SELECT 1 FROM %s WHERE %s = $1 AND %s = $2`,
		schema.CoreTeam.Table, schema.CoreTeam.EventID, schema.CoreTeam.ID,
	), eventID, teamID)
}

func (tx *postgresTx) Holds(ctx context.Context, accountID string, role sec.Role) (bool, error) {
	return tx.exists(ctx, "holds", fmt.Sprintf(
		`SELECT 1 FROM %s WHERE %s`, schema.UserRole.Table, scopeMatch,
	), accountID, string(role.Kind), nullable(role.EventID), nullable(role.TeamID))
}

/*
Insert persists a grant.

Returns:
  - error: apperr.Conflict on the role_grant_key unique index, or database failures
*/
func (tx *postgresTx) Insert(ctx context.Context, grant *Grant) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3::users.role_kind, $4, $5, $6, $7)`,
		schema.UserRole.Table,
		schema.UserRole.ID, schema.UserRole.AccountID, schema.UserRole.Kind,
		schema.UserRole.EventID, schema.UserRole.TeamID, schema.UserRole.GrantedBy, schema.UserRole.CreatedAt,
	)

	if grant.CreatedAt.IsZero() {
		grant.CreatedAt = time.Now().UTC()
	}

	_, err := tx.querier.Exec(ctx, query,
		grant.ID, grant.AccountID, string(grant.Role.Kind),
		nullable(grant.Role.EventID), nullable(grant.Role.TeamID), grant.GrantedBy, grant.CreatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "Role grant")
	}
	return nil
}

func (tx *postgresTx) Delete(ctx context.Context, accountID string, role sec.Role) (bool, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s`, schema.UserRole.Table, scopeMatch)

	tag, err := tx.querier.Exec(ctx, query, accountID, string(role.Kind), nullable(role.EventID), nullable(role.TeamID))
	if err != nil {
		return false, fmt.Errorf("postgres_role_repo_delete_failed: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
