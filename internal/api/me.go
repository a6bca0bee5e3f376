// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"net/http"

	requestutil "github.com/taibuivan/crewdesk/internal/platform/request"
	"github.com/taibuivan/crewdesk/internal/platform/respond"
	"github.com/taibuivan/crewdesk/internal/platform/sec"
	"github.com/taibuivan/crewdesk/pkg/uuid"
)

// Editable tells the UI which controls to show the caller.
type Editable struct {
	CreateEvents bool `json:"createEvents"`
	ManageRoles  bool `json:"manageRoles"`

	// Event is present only when the request names one with ?eventId=.
	Event *EventEditable `json:"event,omitempty"`
}

// EventEditable holds the per-event flags.
type EventEditable struct {
	ID          string `json:"id"`
	CreateTeams bool   `json:"createTeams"`
	GrantRoles  bool   `json:"grantRoles"`
}

type meResponse struct {
	*sec.Identity
	Editable Editable `json:"editable"`
}

// editableFor computes the flags with the same role checks the handlers enforce.
func editableFor(identity *sec.Identity, eventID string) Editable {
	editable := Editable{
		CreateEvents: sec.Allowed(identity, sec.Admin()),
		ManageRoles:  sec.Allowed(identity, sec.Admin()),
	}
	if uuid.Valid(eventID) {
		manage := sec.Allowed(identity, sec.Admin(), sec.Organiser(eventID))
		editable.Event = &EventEditable{ID: eventID, CreateTeams: manage, GrantRoles: manage}
	}
	return editable
}

// me handles GET /api/me.
func me(resolver requestutil.IdentityResolver) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		identity, err := requestutil.RequiredIdentity(resolver, request)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}
		respond.OK(writer, meResponse{
			Identity: identity,
			Editable: editableFor(identity, request.URL.Query().Get("eventId")),
		})
	}
}
