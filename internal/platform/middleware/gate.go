// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/taibuivan/crewdesk/internal/platform/constants"
	"github.com/taibuivan/crewdesk/internal/platform/ctxutil"
	"github.com/taibuivan/crewdesk/internal/platform/respond"
	"github.com/taibuivan/crewdesk/internal/security/ratelimit"
)

// SessionLookup reports whether the request carries a live session.
type SessionLookup interface {
	Lookup(request *http.Request) (subjectID string, ok bool, err error)
}

// Bypass reports whether a request may skip the session check (local debug identities).
type Bypass interface {
	Allowed(request *http.Request) bool
}

// Limiter admits or refuses one request for identifier under policy.
type Limiter interface {
	Allow(ctx context.Context, identifier string, policy ratelimit.Policy) bool
}

// GateConfig wires the request gate.
type GateConfig struct {
	Sessions SessionLookup
	Limiter  Limiter

	// Bypass may be nil when debug identities are disabled.
	Bypass Bypass

	// PublicPages are exact paths reachable without a session.
	PublicPages []string
}

// mutationPolicies maps credential form paths to their per-IP limits.
var mutationPolicies = map[string]ratelimit.Policy{
	constants.PathSignUp:         ratelimit.SignUp,
	constants.PathForgotPassword: ratelimit.ForgotPassword,
	constants.PathResetPassword:  ratelimit.ResetPassword,
}

// infraPaths are always reachable: probes, metrics and static assets.
var infraPaths = []string{"/health", "/ready", "/metrics", "/favicon.ico"}

const staticPrefix = "/static/"

/*
Gate runs before every page handler and decides whether the request may
proceed. The first matching rule wins:

 1. Mutations on credential forms are rate limited per client address;
    a refusal redirects (303) back to the form with error=rate_limit.
 2. /api and everything below it passes (API handlers authorise themselves).
 3. Public pages and infrastructure paths pass.
 4. Requests allowed by the debug bypass pass.
 5. Requests without a session are redirected (307) to the sign-in page with
    the original path as callbackUrl.

Rules match the cleaned route path, the same one chi's CleanPath hands to
the router, so dot segments and doubled slashes cannot reach a page through
a public prefix. Every request that passes has X-Pathname set to that path,
replacing any client-supplied value.
*/
func Gate(cfg GateConfig) func(http.Handler) http.Handler {
	public := make(map[string]struct{}, len(cfg.PublicPages)+len(infraPaths))
	for _, page := range append(append([]string{constants.PathSignIn}, cfg.PublicPages...), infraPaths...) {
		public[page] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			route := routePath(request)

			pass := func() {
				request.Header.Set(constants.HeaderXPathname, route)
				next.ServeHTTP(writer, request)
			}

			// ── 1. Credential form throttling ─────────────────────────────────
			if policy, limited := mutationPolicies[route]; limited && isMutation(request.Method) {
				if !cfg.Limiter.Allow(request.Context(), clientAddress(request), policy) {
					target := respond.WithQuery(request.URL.RequestURI(), constants.QueryError, constants.ErrCodeRateLimit)
					respond.Redirect(writer, request, target, http.StatusSeeOther)
					return
				}
			}

			// ── 2. JSON API ───────────────────────────────────────────────────
			if route == constants.PathAPIPrefix || strings.HasPrefix(route, constants.PathAPIPrefix+"/") {
				pass()
				return
			}

			// ── 3. Public pages and infrastructure ────────────────────────────
			if _, ok := public[route]; ok || strings.HasPrefix(route, staticPrefix) {
				pass()
				return
			}

			// ── 4. Debug identities ───────────────────────────────────────────
			if cfg.Bypass != nil && cfg.Bypass.Allowed(request) {
				pass()
				return
			}

			// ── 5. Session required ───────────────────────────────────────────
			if !hasSession(cfg.Sessions, request) {
				target := constants.PathSignIn + "?" + constants.QueryCallbackURL + "=" + url.QueryEscape(route)
				respond.Redirect(writer, request, target, http.StatusTemporaryRedirect)
				return
			}

			pass()
		})
	}
}

/*
routePath is the path the router will match: the escaped form when the URL
carries one (e.g. %2F), cleaned of dot segments and repeated slashes.
*/
func routePath(request *http.Request) string {
	raw := request.URL.RawPath
	if raw == "" {
		raw = request.URL.Path
	}
	if raw == "" {
		return "/"
	}
	return path.Clean(raw)
}

// clientAddress prefers the address resolved by [ClientIP] and falls back
// to the connection peer.
func clientAddress(request *http.Request) string {
	if ip := ctxutil.GetClientIP(request.Context()); ip != constants.UnknownClientIP {
		return ip
	}
	return peerIP(request)
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

// hasSession treats lookup errors and panics as "no session".
func hasSession(sessions SessionLookup, request *http.Request) (ok bool) {
	ctx := request.Context()
	logger := ctxutil.GetLogger(ctx)

	defer func() {
		if recovered := recover(); recovered != nil {
			logger.ErrorContext(ctx, "gate_session_lookup_failed", slog.Any("panic", recovered))
			ok = false
		}
	}()

	_, found, err := sessions.Lookup(request)
	if err != nil {
		logger.ErrorContext(ctx, "gate_session_lookup_failed", slog.Any("error", err))
		return false
	}
	return found
}
