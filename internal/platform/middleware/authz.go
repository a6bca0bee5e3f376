// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"net/http"

	"github.com/taibuivan/crewdesk/internal/platform/apperr"
	"github.com/taibuivan/crewdesk/internal/platform/constants"
	"github.com/taibuivan/crewdesk/internal/platform/respond"
	"github.com/taibuivan/crewdesk/internal/platform/sec"
)

// IdentityResolver returns the caller's identity, or nil when signed out.
//
// # Why an interface?
//
// Defining IdentityResolver here decouples the middleware from the session
// implementation, allowing us to easily inject fakes during unit testing.
type IdentityResolver interface {
	Current(request *http.Request) *sec.Identity
}

// RoleSource computes the roles a route accepts, typically from URL parameters.
type RoleSource func(request *http.Request) []sec.Role

// Accept returns a [RoleSource] with a fixed set of roles.
func Accept(roles ...sec.Role) RoleSource {
	return func(*http.Request) []sec.Role { return roles }
}

/*
RequireRoles guards a page behind the roles returned by roles.

# Flow
 1. Resolve the caller through [IdentityResolver].
 2. Signed out: redirect to the home page.
 3. No accepted role held: 403 via [respond.Error].

An empty role list admits any signed-in caller.
*/
func RequireRoles(resolver IdentityResolver, roles RoleSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			identity := resolver.Current(request)

			// ── 1. Authentication Check ───────────────────────────────────────
			if identity == nil {
				respond.Redirect(writer, request, constants.PathHome, http.StatusFound)
				return
			}

			// ── 2. Authorization Check ────────────────────────────────────────
			if err := sec.Authorize(identity, roles(request)...); err != nil {
				respond.Error(writer, request, err)
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// RequireIdentity is the JSON API counterpart of [RequireRoles] with no role
// requirement: signed-out callers get 401 instead of a redirect.
func RequireIdentity(resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if resolver.Current(request) == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}
			next.ServeHTTP(writer, request)
		})
	}
}
