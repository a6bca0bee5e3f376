// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/taibuivan/crewdesk/internal/platform/constants"
)

// TrustedProxies lists the peers whose forwarding headers are believed.
// The zero value trusts nobody, so every address comes from the connection.
type TrustedProxies struct {
	prefixes []netip.Prefix
}

/*
ParseTrustedProxies reads CIDR blocks or bare addresses (TRUSTED_PROXIES).

Returns:
  - TrustedProxies: The parsed set; empty input trusts nobody
  - error: trusted_proxy_invalid for an entry that is neither
*/
func ParseTrustedProxies(entries []string) (TrustedProxies, error) {
	var trusted TrustedProxies
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		if prefix, err := netip.ParsePrefix(entry); err == nil {
			trusted.prefixes = append(trusted.prefixes, prefix.Masked())
			continue
		}

		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return TrustedProxies{}, fmt.Errorf("trusted_proxy_invalid: %q", entry)
		}
		addr = addr.Unmap()
		trusted.prefixes = append(trusted.prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return trusted, nil
}

// Contains reports whether ip belongs to a trusted proxy.
func (trusted TrustedProxies) Contains(ip string) bool {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range trusted.prefixes {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// peerIP is the host part of the connection's remote address.
func peerIP(request *http.Request) string {
	if host, _, err := net.SplitHostPort(request.RemoteAddr); err == nil && host != "" {
		return host
	}
	if request.RemoteAddr != "" {
		return request.RemoteAddr
	}
	return constants.UnknownClientIP
}
