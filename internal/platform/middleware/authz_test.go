// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/crewdesk/internal/platform/middleware"
	"github.com/taibuivan/crewdesk/internal/platform/sec"
)

type fixedResolver struct{ identity *sec.Identity }

func (f fixedResolver) Current(*http.Request) *sec.Identity { return f.identity }

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

/*
TestRequireRoles covers signed-out, forbidden and allowed callers, with roles from URL params.
*/
func TestRequireRoles(t *testing.T) {
	organiserOf := func(r *http.Request) []sec.Role {
		eventID := chi.URLParam(r, "eventID")
		return []sec.Role{sec.Admin(), sec.Organiser(eventID)}
	}

	tests := []struct {
		name       string
		identity   *sec.Identity
		wantStatus int
	}{
		{"signed_out", nil, http.StatusFound},
		{"volunteer", &sec.Identity{ID: "v"}, http.StatusForbidden},
		{"organiser_other_event", &sec.Identity{ID: "o", Roles: []sec.Role{sec.Organiser("e2")}}, http.StatusForbidden},
		{"organiser", &sec.Identity{ID: "o", Roles: []sec.Role{sec.Organiser("e1")}}, http.StatusOK},
		{"admin", &sec.Identity{ID: "a", Roles: []sec.Role{sec.Admin()}}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := chi.NewRouter()
			router.With(middleware.RequireRoles(fixedResolver{tt.identity}, organiserOf)).
				Get("/events/{eventID}/manage", okHandler)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events/e1/manage", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusFound {
				assert.Equal(t, "/", rec.Header().Get("Location"))
			}
		})
	}
}

func TestRequireIdentity(t *testing.T) {
	handler := middleware.RequireIdentity(fixedResolver{})(okHandler)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	handler = middleware.RequireIdentity(fixedResolver{&sec.Identity{ID: "u"}})(okHandler)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAccept(t *testing.T) {
	roles := middleware.Accept(sec.Admin())(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []sec.Role{sec.Admin()}, roles)
}
