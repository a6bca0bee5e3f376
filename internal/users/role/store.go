// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package role

import (
	"context"

	"github.com/taibuivan/crewdesk/internal/platform/sec"
)

// # Role Data Access

// Repository reads grants and opens write transactions.
type Repository interface {

	// ListForAccount returns the roles held by accountID, oldest grant first.
	ListForAccount(ctx context.Context, accountID string) ([]sec.Role, error)

	// ListGrants returns the full grant records of accountID.
	ListGrants(ctx context.Context, accountID string) ([]*Grant, error)

	/*
		InTx runs fn inside one transaction.

		The transaction commits when fn returns nil and rolls back otherwise.
	*/
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the write side of [Repository], valid only inside [Repository.InTx].
type Tx interface {

	// AccountExists reports whether a live account has the given ID.
	AccountExists(ctx context.Context, accountID string) (bool, error)

	// EventExists reports whether the event exists.
	EventExists(ctx context.Context, eventID string) (bool, error)

	// TeamInEvent reports whether teamID belongs to eventID.
	TeamInEvent(ctx context.Context, eventID, teamID string) (bool, error)

	// Holds reports whether accountID already holds role.
	Holds(ctx context.Context, accountID string, role sec.Role) (bool, error)

	// Insert persists grant. A duplicate grant is apperr.Conflict.
	Insert(ctx context.Context, grant *Grant) error

	// Delete removes the grant of role from accountID and reports whether one existed.
	Delete(ctx context.Context, accountID string, role sec.Role) (bool, error)
}
