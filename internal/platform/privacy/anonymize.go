// Package privacy reduces client identifiers before they reach logs.
package privacy

import "net/netip"

const (
	Unknown = "unknown"
	Invalid = "invalid"
)

// AnonymizeIP keeps the network part of an address: /24 for IPv4 and IPv4
// mapped IPv6, /48 for IPv6. Zones are dropped.
func AnonymizeIP(ip string) string {
	if ip == "" || ip == Unknown {
		return Unknown
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return Invalid
	}
	addr = addr.Unmap().WithZone("")

	bits := 48
	if addr.Is4() {
		bits = 24
	}
	prefix, err := addr.Prefix(bits)
	if err != nil {
		return Invalid
	}
	return prefix.Addr().String()
}
