// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package role

import (
	"context"
	"log/slog"
	"time"

	"github.com/taibuivan/crewdesk/internal/platform/apperr"
	"github.com/taibuivan/crewdesk/internal/platform/ctxutil"
	"github.com/taibuivan/crewdesk/internal/platform/sec"
	"github.com/taibuivan/crewdesk/internal/platform/validate"
	"github.com/taibuivan/crewdesk/pkg/pointer"
	"github.com/taibuivan/crewdesk/pkg/slice"
	"github.com/taibuivan/crewdesk/pkg/uuid"
)

// # Service Layer

// Service applies the grant rules on top of a [Repository].
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService constructs a role [Service].
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (service *Service) WithClock(now func() time.Time) *Service {
	service.now = now
	return service
}

// Managers returns the roles allowed to grant or revoke role: administrators,
// plus the organiser of the event for event-scoped roles.
func Managers(role sec.Role) []sec.Role {
	managers := []sec.Role{sec.Admin()}
	if role.EventID != "" {
		managers = append(managers, sec.Organiser(role.EventID))
	}
	return managers
}

// validateRole checks the role shape and that scope IDs are UUIDs.
func validateRole(role sec.Role) error {
	kinds := slice.Map(sec.RoleKinds, func(kind sec.RoleKind) string { return string(kind) })

	v := &validate.Validator{}
	v.OneOf("kind", string(role.Kind), kinds...)
	if v.HasErrors() {
		return v.Err()
	}

	v.Custom("eventId", role.Kind == sec.KindAdmin && role.EventID != "", "Not allowed for admin roles")
	v.Custom("eventId", role.Kind != sec.KindAdmin && role.EventID == "", "Required for event-scoped roles")
	v.Custom("teamId", role.Kind != sec.KindTeamLead && role.TeamID != "", "Only allowed for team-lead roles")
	v.Custom("teamId", role.Kind == sec.KindTeamLead && role.TeamID == "", "Required for team-lead roles")
	if role.EventID != "" {
		v.UUID("eventId", role.EventID)
	}
	if role.TeamID != "" {
		v.UUID("teamId", role.TeamID)
	}
	return v.Err()
}

// # Queries

// List returns the grants held by accountID.
func (service *Service) List(ctx context.Context, accountID string) ([]*Grant, error) {
	return service.repo.ListGrants(ctx, accountID)
}

// # Commands

/*
Grant gives role to accountID on behalf of actorID.

Description: Runs in one transaction: the account must exist, the scope must
exist (a team-lead's team must belong to the named event) and the account
must not already hold the role.

Returns:
  - *Grant: The stored grant
  - error: apperr.ValidationError, apperr.NotFound("Account"), apperr.Conflict
*/
func (service *Service) Grant(ctx context.Context, accountID string, role sec.Role, actorID string) (*Grant, error) {
	if err := validateRole(role); err != nil {
		return nil, err
	}

	grant := &Grant{
		ID:        uuid.New(),
		AccountID: accountID,
		Role:      role,
		CreatedAt: service.now().UTC(),
	}
	if actorID != "" {
		grant.GrantedBy = pointer.To(actorID)
	}

	err := service.repo.InTx(ctx, func(tx Tx) error {

		// ── 1. Holder ──
		exists, err := tx.AccountExists(ctx, accountID)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.NotFound("Account")
		}

		// ── 2. Scope ──
		switch role.Kind {
		case sec.KindOrganiser:
			found, err := tx.EventExists(ctx, role.EventID)
			if err != nil {
				return err
			}
			if !found {
				return apperr.ValidationError("Validation failed", apperr.FieldError{Field: "eventId", Message: "Event does not exist"})
			}
		case sec.KindTeamLead:
			found, err := tx.TeamInEvent(ctx, role.EventID, role.TeamID)
			if err != nil {
				return err
			}
			if !found {
				return apperr.ValidationError("Validation failed", apperr.FieldError{Field: "teamId", Message: "Team is not part of this event"})
			}
		}

		// ── 3. Duplicate ──
		held, err := tx.Holds(ctx, accountID, role)
		if err != nil {
			return err
		}
		if held {
			return apperr.Conflict("Role already granted")
		}

		return tx.Insert(ctx, grant)
	})
	if err != nil {
		return nil, err
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "role_granted",
		slog.String("account_id", accountID),
		slog.String("role", role.String()),
		slog.String("actor_id", actorID),
	)
	return grant, nil
}

/*
Revoke removes role from accountID.

Returns:
  - error: apperr.ValidationError for a malformed role, apperr.NotFound when
    the account does not hold it
*/
func (service *Service) Revoke(ctx context.Context, accountID string, role sec.Role, actorID string) error {
	if err := validateRole(role); err != nil {
		return err
	}

	err := service.repo.InTx(ctx, func(tx Tx) error {
		removed, err := tx.Delete(ctx, accountID, role)
		if err != nil {
			return err
		}
		if !removed {
			return apperr.NotFound("Role grant")
		}
		return nil
	})
	if err != nil {
		return err
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "role_revoked",
		slog.String("account_id", accountID),
		slog.String("role", role.String()),
		slog.String("actor_id", actorID),
	)
	return nil
}
