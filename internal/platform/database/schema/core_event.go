// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// CoreEventTable represents the 'core.event' table
type CoreEventTable struct {
	Table       string
	ID          string
	Slug        string
	Name        string
	Description string
	StartsAt    string
	EndsAt      string
	CreatedBy   string
	CreatedAt   string
	UpdatedAt   string
}

// CoreEvent is the schema definition for core.event
var CoreEvent = CoreEventTable{
	Table:       "core.event",
	ID:          "id",
	Slug:        "slug",
	Name:        "name",
	Description: "description",
	StartsAt:    "startsat",
	EndsAt:      "endsat",
	CreatedBy:   "createdby",
	CreatedAt:   "createdat",
	UpdatedAt:   "updatedat",
}

// Columns returns all standard column names
func (t CoreEventTable) Columns() []string {
	return []string{
		t.ID, t.Slug, t.Name, t.Description, t.StartsAt, t.EndsAt, t.CreatedBy, t.CreatedAt, t.UpdatedAt,
	}
}
