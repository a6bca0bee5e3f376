// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package event manages arts events and the volunteer teams inside them.

Events and teams are the scopes of organiser and team-lead roles. Creating an
event is reserved for administrators; an event's organiser may add teams to it.
*/
package event

import "time"

// # Domain Entities

// Event is a festival, exhibition or performance that volunteers staff.
type Event struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	StartsAt    *time.Time `json:"startsAt,omitempty"`
	EndsAt      *time.Time `json:"endsAt,omitempty"`
	CreatedBy   *string    `json:"createdBy,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Team is a group of volunteers inside one event.
type Team struct {
	ID          string    `json:"id"`
	EventID     string    `json:"eventId"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// EventInput is the JSON body of an event creation request.
type EventInput struct {
	Name        string     `json:"name"`
	Slug        string     `json:"slug,omitempty"`
	Description string     `json:"description,omitempty"`
	StartsAt    *time.Time `json:"startsAt,omitempty"`
	EndsAt      *time.Time `json:"endsAt,omitempty"`
}

// TeamInput is the JSON body of a team creation request.
type TeamInput struct {
	Name        string `json:"name"`
	Slug        string `json:"slug,omitempty"`
	Description string `json:"description,omitempty"`
}
