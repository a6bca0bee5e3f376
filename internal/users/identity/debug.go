// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"net"
	"net/http"
	"strings"

	"github.com/taibuivan/crewdesk/internal/platform/config"
	"github.com/taibuivan/crewdesk/internal/platform/constants"
	"github.com/taibuivan/crewdesk/internal/platform/sec"
)

// Debug roles accepted by DEBUG_FORCE_ROLE.
const (
	DebugAdmin     = "admin"
	DebugOrganiser = "organiser"
	DebugTeamLead  = "team-lead"
	DebugVolunteer = "volunteer"
)

/*
DebugBypass serves a synthetic identity to local requests during development.

It never applies in production, and only to connections whose remote address
and every forwarded hop are loopback.
*/
type DebugBypass struct {
	role       string
	eventID    string
	teamID     string
	production bool
}

// NewDebugBypass returns nil when DEBUG_FORCE_ROLE is unset.
func NewDebugBypass(cfg *config.Config) *DebugBypass {
	if cfg.DebugForceRole == "" {
		return nil
	}
	return &DebugBypass{
		role:       cfg.DebugForceRole,
		eventID:    cfg.DebugEventID,
		teamID:     cfg.DebugTeamID,
		production: cfg.IsProduction(),
	}
}

// Allowed reports whether request may use the synthetic identity.
func (bypass *DebugBypass) Allowed(request *http.Request) bool {
	if bypass == nil || bypass.role == "" || bypass.production {
		return false
	}

	host, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		host = request.RemoteAddr
	}
	if !isLoopback(host) {
		return false
	}

	for _, header := range []string{constants.HeaderXForwardedFor, constants.HeaderXRealIP, constants.HeaderCFConnectingIP} {
		value := request.Header.Get(header)
		if value == "" {
			continue
		}
		for _, hop := range strings.Split(value, ",") {
			if !isLoopback(strings.TrimSpace(hop)) {
				return false
			}
		}
	}
	return true
}

// Identity builds the synthetic identity for the forced role.
func (bypass *DebugBypass) Identity() *sec.Identity {
	identity := &sec.Identity{
		ID:            "debug-" + bypass.role,
		Name:          "Debug " + bypass.role,
		Email:         bypass.role + "@debug.localhost",
		EmailVerified: true,
		Roles:         []sec.Role{},
	}

	switch bypass.role {
	case DebugAdmin:
		identity.Roles = append(identity.Roles, sec.Admin())
	case DebugOrganiser:
		identity.Roles = append(identity.Roles, sec.Organiser(bypass.eventID))
	case DebugTeamLead:
		identity.Roles = append(identity.Roles, sec.TeamLead(bypass.eventID, bypass.teamID))
	case DebugVolunteer:
	}
	return identity
}

func isLoopback(host string) bool {
	ip := net.ParseIP(strings.Trim(host, "[]"))
	return ip != nil && ip.IsLoopback()
}
