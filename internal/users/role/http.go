// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package role

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/crewdesk/internal/platform/apperr"
	requestutil "github.com/taibuivan/crewdesk/internal/platform/request"
	"github.com/taibuivan/crewdesk/internal/platform/respond"
	"github.com/taibuivan/crewdesk/internal/platform/sec"
	"github.com/taibuivan/crewdesk/pkg/uuid"
)

// # Handler Implementation

// Handler implements the role grant API.
type Handler struct {
	service  *Service
	resolver requestutil.IdentityResolver
}

// NewHandler constructs a role [Handler].
func NewHandler(service *Service, resolver requestutil.IdentityResolver) *Handler {
	return &Handler{service: service, resolver: resolver}
}

// Routes returns the grant endpoints, mounted under /api/users.
//
// # Endpoints
//   - GET    /{userID}/roles : Grants of an account (admin)
//   - POST   /{userID}/roles : Grant a role
//   - DELETE /{userID}/roles : Revoke a role (kind, eventId, teamId query)
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/{userID}/roles", handler.listRoles)
	router.Post("/{userID}/roles", handler.grantRole)
	router.Delete("/{userID}/roles", handler.revokeRole)
	return router
}

// authorize resolves the caller and checks it holds one of accepted.
func (handler *Handler) authorize(request *http.Request, accepted ...sec.Role) (*sec.Identity, error) {
	identity, err := requestutil.RequiredIdentity(handler.resolver, request)
	if err != nil {
		return nil, err
	}
	if err := sec.Authorize(identity, accepted...); err != nil {
		return nil, err
	}
	return identity, nil
}

func userID(request *http.Request) (string, error) {
	id := requestutil.ID(request, "userID")
	if !uuid.Valid(id) {
		return "", apperr.ValidationError("Validation failed", apperr.FieldError{Field: "userID", Message: "Must be a valid UUID"})
	}
	return id, nil
}

/*
GET /api/users/{userID}/roles.

Response:
  - 200: []Grant
  - 401: Signed out
  - 403: Not an administrator
*/
func (handler *Handler) listRoles(writer http.ResponseWriter, request *http.Request) {
	if _, err := handler.authorize(request, sec.Admin()); err != nil {
		respond.Error(writer, request, err)
		return
	}

	accountID, err := userID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	grants, err := handler.service.List(request.Context(), accountID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, grants)
}

/*
POST /api/users/{userID}/roles.

Description: Administrators grant any role; an organiser grants roles
scoped to their event.

Request (Body):
  - { "kind": "team-lead", "eventId": "...", "teamId": "..." }

Response:
  - 201: Grant
  - 400: Malformed role or unknown scope
  - 403: Caller may not manage this role
  - 404: Account not found
  - 409: Already granted
*/
func (handler *Handler) grantRole(writer http.ResponseWriter, request *http.Request) {
	var input Input
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	role := input.Role()

	actor, err := handler.authorize(request, Managers(role)...)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	accountID, err := userID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	grant, err := handler.service.Grant(request.Context(), accountID, role, actor.ID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, grant)
}

/*
DELETE /api/users/{userID}/roles?kind=..&eventId=..&teamId=..

Response:
  - 204: Revoked
  - 403: Caller may not manage this role
  - 404: The account does not hold the role
*/
func (handler *Handler) revokeRole(writer http.ResponseWriter, request *http.Request) {
	query := request.URL.Query()
	role := Input{Kind: query.Get("kind"), EventID: query.Get("eventId"), TeamID: query.Get("teamId")}.Role()

	actor, err := handler.authorize(request, Managers(role)...)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	accountID, err := userID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Revoke(request.Context(), accountID, role, actor.ID); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
