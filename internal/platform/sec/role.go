// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import "fmt"

// # Role Kinds

// RoleKind discriminates the variants of [Role].
type RoleKind string

const (
	// Unrestricted system access
	KindAdmin RoleKind = "admin"

	// Manages a single event and its teams
	KindOrganiser RoleKind = "organiser"

	// Manages a single team inside an event
	KindTeamLead RoleKind = "team-lead"
)

// RoleKinds lists every kind a [Role] may carry.
var RoleKinds = []RoleKind{KindAdmin, KindOrganiser, KindTeamLead}

// # Role Values

/*
Role is a scoped grant held by an identity.

It is a tagged union: [KindAdmin] carries no scope, [KindOrganiser] is scoped
to an event, [KindTeamLead] to a team inside an event. Build values with
[Admin], [Organiser] and [TeamLead] rather than struct literals.
*/
type Role struct {
	Kind    RoleKind `json:"kind"`
	EventID string   `json:"eventId,omitempty"`
	TeamID  string   `json:"teamId,omitempty"`
}

// Admin returns the global administrator role.
func Admin() Role {
	return Role{Kind: KindAdmin}
}

// Organiser returns the organiser role for eventID.
func Organiser(eventID string) Role {
	return Role{Kind: KindOrganiser, EventID: eventID}
}

// TeamLead returns the team-lead role for teamID inside eventID.
func TeamLead(eventID, teamID string) Role {
	return Role{Kind: KindTeamLead, EventID: eventID, TeamID: teamID}
}

/*
Equal reports structural equality.

Roles never imply one another: an admin is not equal to any organiser, and
an organiser of one event is not equal to an organiser of another.
*/
func (r Role) Equal(other Role) bool {
	if r.Kind != other.Kind {
		return false
	}

	switch r.Kind {
	case KindAdmin:
		return true
	case KindOrganiser:
		return r.EventID == other.EventID
	case KindTeamLead:
		return r.EventID == other.EventID && r.TeamID == other.TeamID
	default:
		return false
	}
}

// Valid reports whether the role has a known kind and the scope that kind requires.
func (r Role) Valid() bool {
	switch r.Kind {
	case KindAdmin:
		return r.EventID == "" && r.TeamID == ""
	case KindOrganiser:
		return r.EventID != "" && r.TeamID == ""
	case KindTeamLead:
		return r.EventID != "" && r.TeamID != ""
	default:
		return false
	}
}

// String renders the role for logs, e.g. "team-lead(evt/team)".
func (r Role) String() string {
	switch r.Kind {
	case KindAdmin:
		return string(KindAdmin)
	case KindOrganiser:
		return fmt.Sprintf("%s(%s)", r.Kind, r.EventID)
	case KindTeamLead:
		return fmt.Sprintf("%s(%s/%s)", r.Kind, r.EventID, r.TeamID)
	default:
		return "unknown(" + string(r.Kind) + ")"
	}
}

// HasRole reports whether any of held is structurally equal to target.
func HasRole(held []Role, target Role) bool {
	for _, role := range held {
		if role.Equal(target) {
			return true
		}
	}
	return false
}
