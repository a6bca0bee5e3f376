// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package event

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/crewdesk/internal/platform/apperr"
	requestutil "github.com/taibuivan/crewdesk/internal/platform/request"
	"github.com/taibuivan/crewdesk/internal/platform/respond"
	"github.com/taibuivan/crewdesk/internal/platform/sec"
	"github.com/taibuivan/crewdesk/pkg/pagination"
	"github.com/taibuivan/crewdesk/pkg/uuid"
)

// # Handler Implementation

// Handler implements the HTTP layer for events and teams.
type Handler struct {
	service  *Service
	resolver requestutil.IdentityResolver
}

// NewHandler constructs a new event [Handler].
func NewHandler(service *Service, resolver requestutil.IdentityResolver) *Handler {
	return &Handler{service: service, resolver: resolver}
}

// Routes returns a [chi.Router] with the event endpoints, mounted under /api/events.
//
// Every endpoint requires a signed-in caller; writes check roles per request.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.listEvents)
	router.Post("/", handler.createEvent)
	router.Get("/{eventID}", handler.getEvent)
	router.Get("/{eventID}/teams", handler.listTeams)
	router.Post("/{eventID}/teams", handler.createTeam)

	return router
}

func (handler *Handler) authorize(request *http.Request, accepted ...sec.Role) (*sec.Identity, error) {
	identity, err := requestutil.RequiredIdentity(handler.resolver, request)
	if err != nil {
		return nil, err
	}
	return identity, sec.Authorize(identity, accepted...)
}

func eventID(request *http.Request) (string, error) {
	id := requestutil.ID(request, "eventID")
	if !uuid.Valid(id) {
		return "", apperr.ValidationError("Validation failed", apperr.FieldError{Field: "eventID", Message: "Must be a valid UUID"})
	}
	return id, nil
}

/*
GET /api/events.

Request:
  - limit: int
  - page: int

Response:
  - 200: []Event: Paginated list
  - 401: Signed out
*/
func (handler *Handler) listEvents(writer http.ResponseWriter, request *http.Request) {
	if _, err := handler.authorize(request); err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)
	events, total, err := handler.service.ListEvents(request.Context(), params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, events, params.Meta(total))
}

/*
POST /api/events.

Description: Administrators only. The slug defaults to one derived from the name.

Response:
  - 201: Event
  - 400: Validation errors
  - 403: Not an administrator
  - 409: Slug taken
*/
func (handler *Handler) createEvent(writer http.ResponseWriter, request *http.Request) {
	identity, err := handler.authorize(request, sec.Admin())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input EventInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	event, err := handler.service.CreateEvent(request.Context(), input, identity.ID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, event)
}

/*
GET /api/events/{eventID}.

Request:
  - eventID: string (UUID or slug)

Response:
  - 200: Event
  - 404: Event not found
*/
func (handler *Handler) getEvent(writer http.ResponseWriter, request *http.Request) {
	if _, err := handler.authorize(request); err != nil {
		respond.Error(writer, request, err)
		return
	}

	event, err := handler.service.GetEvent(request.Context(), requestutil.ID(request, "eventID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, event)
}

// GET /api/events/{eventID}/teams.
func (handler *Handler) listTeams(writer http.ResponseWriter, request *http.Request) {
	if _, err := handler.authorize(request); err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := eventID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	teams, err := handler.service.ListTeams(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, teams)
}

/*
POST /api/events/{eventID}/teams.

Description: Administrators, or the organiser of this event.

Response:
  - 201: Team
  - 403: Neither admin nor organiser of the event
  - 404: Event not found
  - 409: Slug taken within the event
*/
func (handler *Handler) createTeam(writer http.ResponseWriter, request *http.Request) {
	id, err := eventID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if _, err := handler.authorize(request, sec.Admin(), sec.Organiser(id)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input TeamInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	team, err := handler.service.CreateTeam(request.Context(), id, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, team)
}
