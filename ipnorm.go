package rdap

import (
	"net/netip"
	"strconv"
	"strings"
)

// IPForm tags the shape the IP Normalizer recognized.
type IPForm int

const (
	NotAnIP IPForm = iota
	FormIPv4
	FormIPv6
	FormCIDR
)

// NormalizedIP is the result of normalizing a raw query token.
type NormalizedIP struct {
	Form IPForm
	// Addr is set for FormIPv4/FormIPv6: the canonical textual address.
	Addr string
	// Prefix is set for FormCIDR: the canonical textual CIDR.
	Prefix string
	// Family is "v4" or "v6", set whenever Form != NotAnIP.
	Family string
}

// NormalizeIP expands shorthand IPv4 (inet_aton style), detects CIDR
// notation, and classifies the address family. It never fails on a
// non-IP-shaped string; it returns NotAnIP and lets the classifier decide.
// A malformed "/prefix" suffix is the only error case.
func NormalizeIP(s string) (NormalizedIP, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return NormalizedIP{}, nil
	}

	if i := strings.IndexByte(s, '/'); i >= 0 {
		host := s[:i]
		plen := s[i+1:]
		expanded := expandShorthandV4(host)
		pfx, err := netip.ParsePrefix(expanded + "/" + plen)
		if err != nil {
			// Maybe it's IPv6 with a shorthand-incompatible host; try raw.
			pfx, err = netip.ParsePrefix(s)
			if err != nil {
				return NormalizedIP{}, newErr("NormalizeIP", InvalidQuery, err)
			}
		}
		fam := "v4"
		if pfx.Addr().Is6() {
			fam = "v6"
		}
		return NormalizedIP{Form: FormCIDR, Prefix: pfx.String(), Family: fam}, nil
	}

	if strings.Contains(s, ":") {
		addr, err := netip.ParseAddr(s)
		if err != nil {
			return NormalizedIP{}, nil
		}
		return NormalizedIP{Form: FormIPv6, Addr: addr.String(), Family: "v6"}, nil
	}

	expanded := expandShorthandV4(s)
	if expanded == s && !looksLikeDottedV4(s) {
		// Bare integer or non-dotted token: not an IP, let the classifier
		// consider it for autnum/TLD instead (§4.1 rule for "a").
		return NormalizedIP{}, nil
	}
	addr, err := netip.ParseAddr(expanded)
	if err != nil {
		return NormalizedIP{}, nil
	}
	return NormalizedIP{Form: FormIPv4, Addr: addr.String(), Family: "v4"}, nil
}

func looksLikeDottedV4(s string) bool {
	return strings.Contains(s, ".")
}

// expandShorthandV4 mirrors historical inet_aton behavior restricted to
// decimal octets: "a.b" -> "a.0.0.b", "a.b.c" -> "a.b.0.c". A bare integer
// with no dot is left unchanged (treated as non-IP upstream).
func expandShorthandV4(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	parts := strings.Split(s, ".")
	for _, p := range parts {
		if !isDecimalOctet(p) {
			return s
		}
	}
	switch len(parts) {
	case 2:
		return parts[0] + ".0.0." + parts[1]
	case 3:
		return parts[0] + "." + parts[1] + ".0." + parts[2]
	case 4:
		return s
	default:
		return s
	}
}

func isDecimalOctet(s string) bool {
	if s == "" {
		return false
	}
	n, err := strconv.Atoi(s)
	return err == nil && n >= 0 && n <= 255
}
