package rdap

import (
	"regexp"
	"strings"
)

// QueryType is a tagged variant over the kinds of query the classifier can
// produce; Raw carries the original (trimmed) input string.
type QueryType struct {
	Kind QueryKind
	Raw  string
	// Normalized is set for Ip/Cidr: the canonicalized address or CIDR to
	// send upstream instead of Raw.
	Normalized string
}

type QueryKind int

const (
	KindDomain QueryKind = iota
	KindTld
	KindIp
	KindCidr
	KindAutnum
	KindEntity
	KindNameserver
	KindDomainSearch
	KindNameserverSearch
	KindEntitySearch
)

func (k QueryKind) String() string {
	switch k {
	case KindDomain:
		return "Domain"
	case KindTld:
		return "Tld"
	case KindIp:
		return "Ip"
	case KindCidr:
		return "Cidr"
	case KindAutnum:
		return "Autnum"
	case KindEntity:
		return "Entity"
	case KindNameserver:
		return "Nameserver"
	case KindDomainSearch:
		return "DomainSearch"
	case KindNameserverSearch:
		return "NameserverSearch"
	case KindEntitySearch:
		return "EntitySearch"
	default:
		return "Unknown"
	}
}

var (
	reASN      = regexp.MustCompile(`(?i)^AS(\d+)$`)
	rePureInt  = regexp.MustCompile(`^\d+$`)
	reLDHLabel = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9-]*[A-Za-z0-9])?$`)
)

// Classify maps a raw input string to a QueryType using the ordered rules
// of the query resolution pipeline. It is total: every input produces a
// QueryType, defaulting to Entity when nothing more specific matches.
// tlds may be nil, in which case rule 4 never matches and falls through to
// rule 5/6.
func Classify(raw string, tlds *TLDList) QueryType {
	s := strings.TrimSpace(raw)

	// Rule 1: AS\d+ or a pure decimal integer with no dot -> Autnum.
	if m := reASN.FindStringSubmatch(s); m != nil {
		return QueryType{Kind: KindAutnum, Raw: s, Normalized: m[1]}
	}
	if rePureInt.MatchString(s) {
		return QueryType{Kind: KindAutnum, Raw: s, Normalized: s}
	}

	// Rule 2/3: consult the IP normalizer.
	if norm, err := NormalizeIP(s); err == nil {
		switch norm.Form {
		case FormCIDR:
			return QueryType{Kind: KindCidr, Raw: s, Normalized: norm.Prefix}
		case FormIPv4, FormIPv6:
			return QueryType{Kind: KindIp, Raw: s, Normalized: norm.Addr}
		}
	}

	lower := strings.ToLower(s)

	// Rule 4: no dot, LDH-only -> check the TLD list.
	if !strings.Contains(lower, ".") && reLDHLabel.MatchString(lower) {
		if tlds != nil && tlds.Has(lower) {
			return QueryType{Kind: KindTld, Raw: s}
		}
	}

	// Rule 5: at least one dot, every label LDH -> Domain.
	if strings.Contains(lower, ".") && allLabelsLDH(lower) {
		return QueryType{Kind: KindDomain, Raw: s}
	}

	// Rule 6: default fallback.
	return QueryType{Kind: KindEntity, Raw: s}
}

// needsTLDList reports whether Classify would actually consult tlds for
// raw: rules 1-3 (autnum, cidr, ip) must all miss, and raw must be a single
// bare LDH label for rule 4 to apply. Lets a Client skip the TLD list's
// lazy network fetch entirely for inputs rule 4 can never affect (IPs,
// ASNs, and dotted domains never need it).
func needsTLDList(raw string) bool {
	s := strings.TrimSpace(raw)
	if reASN.MatchString(s) || rePureInt.MatchString(s) {
		return false
	}
	if norm, err := NormalizeIP(s); err == nil && norm.Form != NotAnIP {
		return false
	}
	lower := strings.ToLower(s)
	return !strings.Contains(lower, ".") && reLDHLabel.MatchString(lower)
}

func allLabelsLDH(s string) bool {
	s = strings.TrimSuffix(s, ".")
	for _, label := range strings.Split(s, ".") {
		if !reLDHLabel.MatchString(label) {
			return false
		}
	}
	return true
}
