// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/crewdesk/internal/platform/constants"
	"github.com/taibuivan/crewdesk/internal/platform/ctxutil"
	"github.com/taibuivan/crewdesk/internal/platform/middleware"
	"github.com/taibuivan/crewdesk/internal/platform/sec"
)

var shell = template.Must(template.New("shell").Parse(`<!doctype html>
<html lang="en"><head><meta charset="utf-8"><title>{{.Title}} · crewdesk</title></head>
<body>
<h1>{{.Title}}</h1>
{{with .Identity}}<p>Signed in as {{.Name}} ({{.Email}})</p>{{end}}
{{if .Pathname}}<p><small>{{.Pathname}}</small></p>{{end}}
<form method="post" action="` + constants.PathSignOut + `"><button type="submit">Sign out</button></form>
</body></html>`))

type shellData struct {
	Title    string
	Identity *sec.Identity
	Pathname string
}

// page renders the shell for the caller the gate let through.
func page(resolver middleware.IdentityResolver, title string) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "text/html; charset=utf-8")
		data := shellData{
			Title:    title,
			Identity: resolver.Current(request),
			Pathname: request.Header.Get(constants.HeaderXPathname),
		}
		if err := shell.Execute(writer, data); err != nil {
			ctxutil.GetLogger(request.Context()).ErrorContext(request.Context(), "page_render_failed", slog.Any("error", err))
		}
	}
}

// eventManagers accepts an administrator or the organiser of the event in the path.
func eventManagers(request *http.Request) []sec.Role {
	return []sec.Role{sec.Admin(), sec.Organiser(chi.URLParam(request, "eventID"))}
}

// registerPages mounts the signed-in pages. The gate has already required a
// session; role checks happen per page.
func registerPages(router chi.Router, resolver middleware.IdentityResolver) {
	router.Get(constants.PathHome, page(resolver, "Events"))
	router.With(middleware.RequireRoles(resolver, middleware.Accept(sec.Admin()))).
		Get("/admin", page(resolver, "Administration"))
	router.With(middleware.RequireRoles(resolver, eventManagers)).
		Get("/events/{eventID}/manage", page(resolver, "Manage event"))
}
