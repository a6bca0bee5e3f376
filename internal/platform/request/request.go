// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/taibuivan/crewdesk/internal/platform/apperr"
	"github.com/taibuivan/crewdesk/internal/platform/sec"
	"github.com/taibuivan/crewdesk/internal/platform/validate"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// IdentityResolver returns the identity of the request, or nil when signed out.
type IdentityResolver interface {
	Current(request *http.Request) *sec.Identity
}

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - request: *http.Request
  - target: any (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, request.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
ID retrieves a named URL parameter (UUID/Slug) from the request.
*/
func ID(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

// FormValue returns the trimmed form field. Passwords must use [RawFormValue].
func FormValue(request *http.Request, name string) string {
	return strings.TrimSpace(request.PostFormValue(name))
}

// RawFormValue returns the form field exactly as submitted.
func RawFormValue(request *http.Request, name string) string {
	return request.PostFormValue(name)
}

/*
RequiredIdentity ensures the request is authenticated and returns its identity.

Returns:
  - *sec.Identity: The resolved identity
  - error: apperr.Unauthorized if the request is not authenticated
*/
func RequiredIdentity(resolver IdentityResolver, request *http.Request) (*sec.Identity, error) {
	identity := resolver.Current(request)
	if identity == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}
	return identity, nil
}

/*
RequiredUserID returns the account ID of the currently signed-in user.

Returns:
  - string: Account UUID
  - error: apperr.Unauthorized if not authenticated
*/
func RequiredUserID(resolver IdentityResolver, request *http.Request) (string, error) {
	identity, err := RequiredIdentity(resolver, request)
	if err != nil {
		return "", err
	}
	return identity.ID, nil
}
