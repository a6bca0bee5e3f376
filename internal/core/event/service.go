// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package event

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/crewdesk/internal/platform/ctxutil"
	"github.com/taibuivan/crewdesk/internal/platform/validate"
	"github.com/taibuivan/crewdesk/pkg/slug"
	"github.com/taibuivan/crewdesk/pkg/uuid"
)

const (
	maxNameLength        = 200
	maxDescriptionLength = 2000
)

// # Service Layer

// Service orchestrates business rules for events and teams.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService constructs a new event [Service].
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (service *Service) WithClock(now func() time.Time) *Service {
	service.now = now
	return service
}

// ListEvents returns one page of events and the total count.
func (service *Service) ListEvents(ctx context.Context, limit, offset int) ([]*Event, int, error) {
	return service.repo.List(ctx, limit, offset)
}

// GetEvent retrieves an event by its UUID or slug.
func (service *Service) GetEvent(ctx context.Context, identifier string) (*Event, error) {
	if uuid.Valid(identifier) {
		return service.repo.FindByID(ctx, identifier)
	}
	return service.repo.FindBySlug(ctx, identifier)
}

// slugFor uses the requested slug, or derives one from name.
func slugFor(requested, name string) string {
	if requested = strings.TrimSpace(requested); requested != "" {
		return requested
	}
	return slug.From(name)
}

/*
CreateEvent validates and stores a new event.

Parameters:
  - ctx: context.Context
  - input: EventInput
  - creatorID: string (The administrator creating the event)

Returns:
  - *Event: Created entity
  - error: apperr.ValidationError, apperr.Conflict for a taken slug
*/
func (service *Service) CreateEvent(ctx context.Context, input EventInput, creatorID string) (*Event, error) {
	name := strings.TrimSpace(input.Name)
	eventSlug := slugFor(input.Slug, name)

	v := &validate.Validator{}
	v.Required("name", name).MaxLen("name", name, maxNameLength)
	v.MaxLen("description", input.Description, maxDescriptionLength)
	if name != "" {
		v.Slug("slug", eventSlug)
	}
	v.Custom("endsAt", input.StartsAt != nil && input.EndsAt != nil && input.EndsAt.Before(*input.StartsAt), "Must not be before startsAt")
	if err := v.Err(); err != nil {
		return nil, err
	}

	now := service.now().UTC()
	event := &Event{
		ID:          uuid.New(),
		Slug:        eventSlug,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		StartsAt:    input.StartsAt,
		EndsAt:      input.EndsAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if creatorID != "" {
		event.CreatedBy = &creatorID
	}

	if err := service.repo.Create(ctx, event); err != nil {
		return nil, err
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "event_created",
		slog.String("event_id", event.ID),
		slog.String("slug", event.Slug),
	)
	return event, nil
}

// ListTeams returns the teams of an event, which must exist.
func (service *Service) ListTeams(ctx context.Context, eventID string) ([]*Team, error) {
	if _, err := service.repo.FindByID(ctx, eventID); err != nil {
		return nil, err
	}
	return service.repo.ListTeams(ctx, eventID)
}

/*
CreateTeam adds a team to an existing event.

Returns:
  - *Team: Created entity
  - error: apperr.NotFound for an unknown event, apperr.ValidationError,
    apperr.Conflict when the slug is taken within the event
*/
func (service *Service) CreateTeam(ctx context.Context, eventID string, input TeamInput) (*Team, error) {
	name := strings.TrimSpace(input.Name)
	teamSlug := slugFor(input.Slug, name)

	v := &validate.Validator{}
	v.Required("name", name).MaxLen("name", name, maxNameLength)
	v.MaxLen("description", input.Description, maxDescriptionLength)
	if name != "" {
		v.Slug("slug", teamSlug)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	if _, err := service.repo.FindByID(ctx, eventID); err != nil {
		return nil, err
	}

	team := &Team{
		ID:          uuid.New(),
		EventID:     eventID,
		Slug:        teamSlug,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		CreatedAt:   service.now().UTC(),
	}
	if err := service.repo.CreateTeam(ctx, team); err != nil {
		return nil, err
	}
	return team, nil
}
