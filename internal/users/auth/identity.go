// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"

	"github.com/taibuivan/crewdesk/internal/platform/sec"
)

// Directory loads identities from accounts and role grants.
type Directory struct {
	accounts AccountRepository
	roles    RoleLister
}

// NewDirectory creates an identity source over the account and role stores.
func NewDirectory(accounts AccountRepository, roles RoleLister) *Directory {
	return &Directory{accounts: accounts, roles: roles}
}

/*
FindIdentity returns the identity of accountID with its granted roles.

A soft-deleted account is returned with DeletedAt set; the caller decides
what that means. A missing account is apperr.NotFound.
*/
func (directory *Directory) FindIdentity(ctx context.Context, accountID string) (*sec.Identity, error) {
	account, err := directory.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	identity := &sec.Identity{
		ID:            account.ID,
		Name:          account.Name,
		Email:         account.Email,
		EmailVerified: account.EmailVerified,
		DeletedAt:     account.DeletedAt,
	}
	if account.DeletedAt != nil {
		return identity, nil
	}

	roles, err := directory.roles.ListForAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("auth_identity_roles_failed: %w", err)
	}
	identity.Roles = roles
	return identity, nil
}
