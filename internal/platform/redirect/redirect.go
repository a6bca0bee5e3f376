// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package redirect restricts post-sign-in redirects to same-origin relative paths.
package redirect

import (
	"strings"

	"github.com/taibuivan/crewdesk/internal/platform/constants"
)

/*
Sanitize returns raw as a same-origin path, or "/" when it cannot be one.

Rejected inputs:
  - empty after trimming
  - protocol-relative ("//host")
  - anything containing "://", a NUL byte or a backslash

Accepted inputs gain a leading "/" if they lack one. The result never
starts with "//" and Sanitize(Sanitize(x)) == Sanitize(x).
*/
func Sanitize(raw string) string {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return constants.DefaultRedirectTarget
	}

	if strings.HasPrefix(candidate, "//") ||
		strings.Contains(candidate, "://") ||
		strings.ContainsAny(candidate, "\x00\\") {
		return constants.DefaultRedirectTarget
	}

	if !strings.HasPrefix(candidate, "/") {
		candidate = "/" + candidate
	}

	return candidate
}
