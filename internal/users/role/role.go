// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package role manages role grants: who is an administrator, which events an
account organises and which teams it leads.

# Permissions

  - Listing grants is reserved for administrators.
  - Administrators may grant and revoke any role.
  - An organiser may grant and revoke roles scoped to their own event.

Grants are read back by the identity directory on every resolved request,
so a change takes effect on the holder's next request.
*/
package role

import (
	"time"

	"github.com/taibuivan/crewdesk/internal/platform/sec"
)

// # Domain Entities

// Grant is one role held by an account.
type Grant struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	Role      sec.Role  `json:"role"`
	GrantedBy *string   `json:"grantedBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Input is the JSON body of a grant request.
type Input struct {
	Kind    string `json:"kind"`
	EventID string `json:"eventId,omitempty"`
	TeamID  string `json:"teamId,omitempty"`
}

// Role converts the input into a [sec.Role] without validating it.
func (input Input) Role() sec.Role {
	return sec.Role{Kind: sec.RoleKind(input.Kind), EventID: input.EventID, TeamID: input.TeamID}
}
