package session

import (
	"net"
	"net/netip"
	"strings"
)

const (
	// OriginLocal is the origin every loopback address collapses to
	OriginLocal = "local"
	// OriginUnknown is used when no client address is available
	OriginUnknown = "unknown"
)

// NormalizeOrigin reduces a client address to the key used for session policy.
// Ports and IPv6 zones are dropped, IPv4-mapped IPv6 addresses become IPv4, and
// any loopback address becomes OriginLocal. Inputs that are not IP addresses are
// kept trimmed and lowercased.
func NormalizeOrigin(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return OriginUnknown
	}

	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")

	if strings.EqualFold(s, "localhost") {
		return OriginLocal
	}

	addr, err := netip.ParseAddr(s)
	if err != nil {
		if s == "" {
			return OriginUnknown
		}
		return strings.ToLower(s)
	}

	addr = addr.Unmap().WithZone("")
	if addr.IsLoopback() {
		return OriginLocal
	}
	return addr.String()
}
