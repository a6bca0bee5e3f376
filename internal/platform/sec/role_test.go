// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/crewdesk/internal/platform/sec"
)

// sample builds a canonical role of the given kind and fails on unknown kinds.
func sample(t *testing.T, kind sec.RoleKind) sec.Role {
	t.Helper()
	switch kind {
	case sec.KindAdmin:
		return sec.Admin()
	case sec.KindOrganiser:
		return sec.Organiser("evt-1")
	case sec.KindTeamLead:
		return sec.TeamLead("evt-1", "team-1")
	default:
		t.Fatalf("role kind %q has no sample; add a branch here and in every switch over RoleKind", kind)
		return sec.Role{}
	}
}

/*
TestRoleKinds_Exhaustive fails when a new kind is added without updating the role switches.
*/
func TestRoleKinds_Exhaustive(t *testing.T) {
	for _, kind := range sec.RoleKinds {
		t.Run(string(kind), func(t *testing.T) {
			role := sample(t, kind)

			assert.True(t, role.Valid(), "sample role must be valid")
			assert.True(t, role.Equal(role), "role must equal itself")
			assert.False(t, strings.HasPrefix(role.String(), "unknown("), "String must handle the kind")
		})
	}
}

/*
TestRole_Equal covers structural equality and the absence of role implication.
*/
func TestRole_Equal(t *testing.T) {
	tests := []struct {
		name string
		a, b sec.Role
		want bool
	}{
		{"admin_admin", sec.Admin(), sec.Admin(), true},
		{"admin_not_organiser", sec.Admin(), sec.Organiser("e1"), false},
		{"organiser_same_event", sec.Organiser("e1"), sec.Organiser("e1"), true},
		{"organiser_other_event", sec.Organiser("e1"), sec.Organiser("e2"), false},
		{"teamlead_same", sec.TeamLead("e1", "t1"), sec.TeamLead("e1", "t1"), true},
		{"teamlead_other_team", sec.TeamLead("e1", "t1"), sec.TeamLead("e1", "t2"), false},
		{"teamlead_other_event", sec.TeamLead("e1", "t1"), sec.TeamLead("e2", "t1"), false},
		{"organiser_not_teamlead", sec.Organiser("e1"), sec.TeamLead("e1", "t1"), false},
		{"unknown_kind", sec.Role{Kind: "root"}, sec.Role{Kind: "root"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
			assert.Equal(t, tt.want, tt.b.Equal(tt.a))
		})
	}
}

/*
TestRole_Valid verifies that each kind requires exactly its own scope.
*/
func TestRole_Valid(t *testing.T) {
	assert.True(t, sec.Admin().Valid())
	assert.False(t, sec.Role{Kind: sec.KindAdmin, EventID: "e1"}.Valid())
	assert.False(t, sec.Organiser("").Valid())
	assert.False(t, sec.TeamLead("e1", "").Valid())
	assert.False(t, sec.Role{Kind: "volunteer"}.Valid())
}

func TestIdentity_Has(t *testing.T) {
	id := &sec.Identity{ID: "u1", Roles: []sec.Role{sec.Organiser("e1")}}

	assert.True(t, id.Has(sec.Organiser("e1")))
	assert.False(t, id.Has(sec.Admin()))
	assert.False(t, id.IsDeleted())
}
