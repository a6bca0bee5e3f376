// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/crewdesk/internal/platform/apperr"
	requestutil "github.com/taibuivan/crewdesk/internal/platform/request"
	"github.com/taibuivan/crewdesk/internal/platform/respond"
	"github.com/taibuivan/crewdesk/internal/users/auth"
	"github.com/taibuivan/crewdesk/pkg/uuid"
)

// CurrentSession exposes the request's own session and clears its cookie.
type CurrentSession interface {
	Current(request *http.Request) (*auth.Session, error)
	Clear(writer http.ResponseWriter)
}

// Handler implements the HTTP layer for account self-service.
type Handler struct {
	accountService *Service
	sessions       CurrentSession
	resolver       requestutil.IdentityResolver
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service, sessions CurrentSession, resolver requestutil.IdentityResolver) *Handler {
	return &Handler{accountService: service, sessions: sessions, resolver: resolver}
}

// Routes returns a [chi.Router] with the account endpoints, mounted under /api/account.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Account Management
	router.Get("/", handler.getMe)
	router.Patch("/", handler.updateMe)
	router.Delete("/", handler.deleteMe)
	router.Post("/password", handler.changePassword)

	// Session Security
	router.Get("/sessions", handler.listSessions)
	router.Delete("/sessions", handler.revokeOtherSessions)
	router.Delete("/sessions/{sessionID}", handler.revokeSession)

	return router
}

// currentSessionID is empty for callers without a session (local debug identities).
func (handler *Handler) currentSessionID(request *http.Request) (string, error) {
	session, err := handler.sessions.Current(request)
	if err != nil || session == nil {
		return "", err
	}
	return session.ID, nil
}

// # Account Endpoints

/*
GET /api/account.

Response:
  - 200: Account
  - 401: Signed out
*/
func (handler *Handler) getMe(writer http.ResponseWriter, request *http.Request) {
	accountID, err := requestutil.RequiredUserID(handler.resolver, request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	account, err := handler.accountService.GetProfile(request.Context(), accountID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, account)
}

type updateMeRequest struct {
	Name *string `json:"name"`
}

/*
PATCH /api/account.

Response:
  - 200: Account
  - 400: Validation errors
*/
func (handler *Handler) updateMe(writer http.ResponseWriter, request *http.Request) {
	accountID, err := requestutil.RequiredUserID(handler.resolver, request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var body updateMeRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	account, err := handler.accountService.UpdateProfile(request.Context(), accountID, UpdateProfileInput{Name: body.Name})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, account)
}

/*
DELETE /api/account.

Description: Soft-deletes the account, ends every session and clears the cookie.

Response:
  - 204: Deleted
*/
func (handler *Handler) deleteMe(writer http.ResponseWriter, request *http.Request) {
	accountID, err := requestutil.RequiredUserID(handler.resolver, request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.DeleteAccount(request.Context(), accountID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.sessions.Clear(writer)
	respond.NoContent(writer)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

/*
POST /api/account/password.

Response:
  - 204: Changed; other sessions revoked
  - 400: Wrong current password, weak new password, or no local password
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	accountID, err := requestutil.RequiredUserID(handler.resolver, request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var body changePasswordRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	keep, err := handler.currentSessionID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.ChangePassword(request.Context(), accountID, keep, body.CurrentPassword, body.NewPassword); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// # Session Endpoints

// GET /api/account/sessions.
func (handler *Handler) listSessions(writer http.ResponseWriter, request *http.Request) {
	accountID, err := requestutil.RequiredUserID(handler.resolver, request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	current, err := handler.currentSessionID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	sessions, err := handler.accountService.ListSessions(request.Context(), accountID, current)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, sessions)
}

/*
DELETE /api/account/sessions/{sessionID}.

Description: Revoking the current session also clears its cookie.

Response:
  - 204: Revoked
  - 404: Not one of the caller's active sessions
*/
func (handler *Handler) revokeSession(writer http.ResponseWriter, request *http.Request) {
	accountID, err := requestutil.RequiredUserID(handler.resolver, request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	sessionID := requestutil.ID(request, "sessionID")
	if !uuid.Valid(sessionID) {
		respond.Error(writer, request, apperr.NotFound("Session"))
		return
	}

	current, err := handler.currentSessionID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.RevokeSession(request.Context(), accountID, sessionID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if sessionID == current {
		handler.sessions.Clear(writer)
	}
	respond.NoContent(writer)
}

// DELETE /api/account/sessions signs out every other browser.
func (handler *Handler) revokeOtherSessions(writer http.ResponseWriter, request *http.Request) {
	accountID, err := requestutil.RequiredUserID(handler.resolver, request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	current, err := handler.currentSessionID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.RevokeOtherSessions(request.Context(), accountID, current); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
