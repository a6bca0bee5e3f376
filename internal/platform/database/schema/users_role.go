// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// UserRoleTable represents the 'users.role' table
type UserRoleTable struct {
	Table     string
	ID        string
	AccountID string
	Kind      string
	EventID   string
	TeamID    string
	GrantedBy string
	CreatedAt string
}

// UserRole is the schema definition for users.role
var UserRole = UserRoleTable{
	Table:     "users.role",
	ID:        "id",
	AccountID: "accountid",
	Kind:      "kind",
	EventID:   "eventid",
	TeamID:    "teamid",
	GrantedBy: "grantedby",
	CreatedAt: "createdat",
}

// Columns returns all standard column names
func (t UserRoleTable) Columns() []string {
	return []string{t.ID, t.AccountID, t.Kind, t.EventID, t.TeamID, t.GrantedBy, t.CreatedAt}
}
