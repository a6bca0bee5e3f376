// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// CoreTeamTable represents the 'core.team' table
type CoreTeamTable struct {
	Table       string
	ID          string
	EventID     string
	Slug        string
	Name        string
	Description string
	CreatedAt   string
}

// CoreTeam is the schema definition for core.team
var CoreTeam = CoreTeamTable{
	Table:       "core.team",
	ID:          "id",
	EventID:     "eventid",
	Slug:        "slug",
	Name:        "name",
	Description: "description",
	CreatedAt:   "createdat",
}

// Columns returns all standard column names
func (t CoreTeamTable) Columns() []string {
	return []string{t.ID, t.EventID, t.Slug, t.Name, t.Description, t.CreatedAt}
}
