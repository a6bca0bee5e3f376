// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package event

import "context"

// # Event Data Access

// Repository defines the data access contract for events and teams.
type Repository interface {

	/*
		List returns one page of events, soonest first, and the total count.

		Parameters:
		  - ctx: context.Context
		  - limit: int
		  - offset: int

		Returns:
		  - []*Event: Page of events
		  - int: Total record count
		  - error: Database retrieval failures
	*/
	List(ctx context.Context, limit, offset int) ([]*Event, int, error)

	// FindByID returns the event or apperr.NotFound.
	FindByID(ctx context.Context, id string) (*Event, error)

	// FindBySlug returns the event or apperr.NotFound.
	FindBySlug(ctx context.Context, slug string) (*Event, error)

	// Create persists an event. A taken slug is apperr.Conflict.
	Create(ctx context.Context, event *Event) error

	// ListTeams returns the teams of eventID ordered by name.
	ListTeams(ctx context.Context, eventID string) ([]*Team, error)

	// CreateTeam persists a team. A slug taken within the event is apperr.Conflict.
	CreateTeam(ctx context.Context, team *Team) error
}
