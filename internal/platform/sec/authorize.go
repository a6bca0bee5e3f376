// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import "github.com/taibuivan/crewdesk/internal/platform/apperr"

/*
Authorize checks that identity holds at least one of the accepted roles.

  - nil identity: [apperr.Unauthorized]
  - no accepted roles: allowed (any signed-in caller)
  - otherwise allowed only on a structurally equal role, else [apperr.Forbidden]

Callers that accept "admin or organiser of this event" pass both roles.
*/
func Authorize(identity *Identity, accepted ...Role) error {
	if identity == nil {
		return apperr.Unauthorized("Authentication required")
	}
	if !Allowed(identity, accepted...) {
		return apperr.Forbidden("Insufficient permissions")
	}
	return nil
}

// Allowed is the side-effect free variant of [Authorize], used to compute
// whether a view is editable. A nil identity is never allowed.
func Allowed(identity *Identity, accepted ...Role) bool {
	if identity == nil {
		return false
	}
	if len(accepted) == 0 {
		return true
	}
	for _, role := range accepted {
		if identity.Has(role) {
			return true
		}
	}
	return false
}
