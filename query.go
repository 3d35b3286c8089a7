package rdap

import (
	"context"
	"fmt"
	"net/netip"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// RdapRequest names one query the pipeline can resolve; Raw is always the
// original input, Kind is nil when the caller wants auto-classification
// (§4.2 "An explicit type override ... bypasses detection").
type RdapRequest struct {
	Raw  string
	Kind *QueryKind
}

// RdapQueryResult is the composite outcome of a full pipeline run: the
// registry-level object is always present on success; Registrar is set
// only for domain queries that had a followable referral (§3
// "RdapQueryResult carries one or two decoded RdapObjects").
type RdapQueryResult struct {
	Query RdapRequest

	Registry    RdapObject
	RegistryURL string

	Registrar    RdapObject
	RegistrarURL string

	AbuseContact string
	AdminContact string
	TechContact  string

	// RequestID correlates this query's log lines. It is not sent upstream
	// as a request header.
	RequestID string
}

// Query runs the full resolution pipeline for raw: classify (or honor an
// explicit override), normalize, resolve the authoritative base URL,
// fetch, decode, extract the abuse contact (plus the administrative and
// technical contacts for TLD queries), and — for domains — chase one
// registrar referral (§1, §4.5).
func (c *Client) Query(ctx context.Context, raw string) (*RdapQueryResult, error) {
	return c.query(ctx, RdapRequest{Raw: raw})
}

// QueryAs runs the pipeline with an explicit QueryKind override, bypassing
// the classifier entirely (the CLI's -t/--type flag).
func (c *Client) QueryAs(ctx context.Context, raw string, kind QueryKind) (*RdapQueryResult, error) {
	return c.query(ctx, RdapRequest{Raw: raw, Kind: &kind})
}

func (c *Client) query(ctx context.Context, req RdapRequest) (*RdapQueryResult, error) {
	if req.Kind == nil && needsTLDList(req.Raw) {
		// Rule 4 needs the IANA TLD list; a lazy-load failure isn't fatal
		// here (Classify falls through to rule 5/6, §8 "classify... never
		// fails"), so the error is logged, not propagated.
		if err := c.ensureFreshTLDList(ctx); err != nil && c.log != nil {
			c.log.Warn("tld list unavailable, classifier rule 4 will not match", "error", err.Error())
		}
	}
	qt := c.classify(req)
	reqID := uuid.NewString()
	log := c.log.With("request_id", reqID, "query", qt.Raw, "kind", qt.Kind.String())

	base, err := c.resolveBase(ctx, qt)
	if err != nil {
		log.Err(err, "stage", "resolve")
		return nil, err
	}
	path, err := pathForQuery(qt)
	if err != nil {
		log.Err(err, "stage", "path")
		return nil, err
	}
	u := mustJoin(base, path)

	log.Debug("fetching", "url", u)
	m, _, err := c.getJSON(ctx, u)
	if err != nil {
		wrapped := wrapTransportError("Query", err)
		log.Err(wrapped, "stage", "fetch", "url", u)
		return nil, wrapped
	}
	obj, err := ParseObject(m)
	if err != nil {
		log.Err(err, "stage", "decode", "url", u)
		return nil, err
	}

	result := &RdapQueryResult{
		Query:       req,
		Registry:    obj,
		RegistryURL: u,
		RequestID:   reqID,
	}

	if d, ok := obj.(*Domain); ok {
		if eh, ok := any(d).(entityHolder); ok {
			if email, found := findContactEmail(eh, "abuse", c.contactMaxDepth); found {
				result.AbuseContact = email
			}
		}
		if qt.Kind == KindTld {
			if email, found := findContactEmail(d, "administrative", c.contactMaxDepth); found {
				result.AdminContact = email
			}
			if email, found := findContactEmail(d, "technical", c.contactMaxDepth); found {
				result.TechContact = email
			}
		}
		if c.followReferral {
			if href, ok := findRegistrarReferral(d); ok {
				registrar, registrarURL, _ := c.chaseReferral(ctx, href)
				if registrar != nil {
					result.Registrar = registrar
					result.RegistrarURL = registrarURL
				}
			}
		}
	} else if eh, ok := obj.(entityHolder); ok {
		if email, found := findContactEmail(eh, "abuse", c.contactMaxDepth); found {
			result.AbuseContact = email
		}
		if qt.Kind == KindTld {
			if email, found := findContactEmail(eh, "administrative", c.contactMaxDepth); found {
				result.AdminContact = email
			}
			if email, found := findContactEmail(eh, "technical", c.contactMaxDepth); found {
				result.TechContact = email
			}
		}
	}

	return result, nil
}

// classify honors an explicit override (bypassing the classifier
// entirely, §4.2) or runs Classify/NormalizeIP otherwise.
func (c *Client) classify(req RdapRequest) QueryType {
	if req.Kind != nil {
		qt := QueryType{Kind: *req.Kind, Raw: strings.TrimSpace(req.Raw)}
		switch qt.Kind {
		case KindIp, KindCidr:
			if norm, err := NormalizeIP(qt.Raw); err == nil {
				if norm.Form == FormCIDR {
					qt.Normalized = norm.Prefix
				} else {
					qt.Normalized = norm.Addr
				}
			}
		case KindAutnum:
			qt.Normalized = strings.TrimPrefix(strings.ToUpper(qt.Raw), "AS")
		}
		return qt
	}
	return Classify(req.Raw, c.tldList)
}

// resolveBase picks the authoritative base URL for qt: the client-wide
// override always wins; otherwise bootstrap resolution per §4.3, memoized
// briefly in baseCache to avoid rescanning the registry for hot queries.
func (c *Client) resolveBase(ctx context.Context, qt QueryType) (string, error) {
	if c.overrideServer != "" {
		return c.overrideServer, nil
	}

	switch qt.Kind {
	case KindDomain, KindTld:
		tld := lastLabel(qt.Raw)
		if base, ok := c.baseCache.Get("dns:" + tld); ok {
			return base, nil
		}
		base, err := c.resolveDNS(ctx, tld)
		if err != nil {
			return "", err
		}
		c.baseCache.Set("dns:"+tld, base)
		return base, nil

	case KindIp:
		addr, err := netip.ParseAddr(qt.Normalized)
		if err != nil {
			return "", newErr("resolveBase", InvalidQuery, err)
		}
		if base, ok := c.baseCache.Get("ip:" + qt.Normalized); ok {
			return base, nil
		}
		base, err := c.resolveIP(ctx, addr)
		if err != nil {
			return "", err
		}
		c.baseCache.Set("ip:"+qt.Normalized, base)
		return base, nil

	case KindCidr:
		pfx, err := netip.ParsePrefix(qt.Normalized)
		if err != nil {
			return "", newErr("resolveBase", InvalidQuery, err)
		}
		if base, ok := c.baseCache.Get("cidr:" + qt.Normalized); ok {
			return base, nil
		}
		base, err := c.resolveIPCIDR(ctx, pfx)
		if err != nil {
			return "", err
		}
		c.baseCache.Set("cidr:"+qt.Normalized, base)
		return base, nil

	case KindAutnum:
		asn, err := strconv.ParseUint(qt.Normalized, 10, 64)
		if err != nil {
			return "", newErr("resolveBase", InvalidQuery, err)
		}
		if base, ok := c.baseCache.Get("asn:" + qt.Normalized); ok {
			return base, nil
		}
		base, err := c.resolveASN(ctx, asn)
		if err != nil {
			return "", err
		}
		c.baseCache.Set("asn:"+qt.Normalized, base)
		return base, nil

	case KindEntity, KindNameserver, KindDomainSearch, KindNameserverSearch, KindEntitySearch:
		if base, ok := c.resolveObjectTag(ctx, qt.Raw); ok {
			return base, nil
		}
		return "", newErr("resolveBase", RequiresExplicitServer, fmt.Errorf("%s queries require an explicit server (-s/--server or WithOverrideServer)", qt.Kind))

	default:
		return "", newErr("resolveBase", InvalidQuery, fmt.Errorf("unhandled query kind %s", qt.Kind))
	}
}

// pathForQuery builds the RFC 7482 request path for qt.
func pathForQuery(qt QueryType) (string, error) {
	switch qt.Kind {
	case KindDomain, KindTld:
		return "/domain/" + toASCIILabel(strings.TrimSuffix(qt.Raw, ".")), nil
	case KindIp:
		return "/ip/" + qt.Normalized, nil
	case KindCidr:
		return "/ip/" + qt.Normalized, nil
	case KindAutnum:
		return "/autnum/" + qt.Normalized, nil
	case KindEntity:
		return "/entity/" + qt.Raw, nil
	case KindNameserver:
		return "/nameserver/" + toASCIILabel(qt.Raw), nil
	case KindDomainSearch:
		return "/domains?name=" + url.QueryEscape(qt.Raw), nil
	case KindNameserverSearch:
		return "/nameservers?name=" + url.QueryEscape(qt.Raw), nil
	case KindEntitySearch:
		return "/entities?fn=" + url.QueryEscape(qt.Raw), nil
	default:
		return "", newErr("pathForQuery", InvalidQuery, fmt.Errorf("unhandled query kind %s", qt.Kind))
	}
}

// wrapTransportError renames op onto err's Kind without losing the
// HTTPStatus/RetryAfter/Code/Title/Description fields getJSON already
// populated; a plain (untyped) error is wrapped fresh.
func wrapTransportError(op string, err error) error {
	if e, ok := err.(*Error); ok {
		wrapped := *e
		wrapped.Op = op
		return &wrapped
	}
	return newErr(op, classifyTransportError(err), err)
}

// classifyTransportError maps a raw getJSON error to the closest §7 Kind
// when it isn't already a *Error (getJSON returns HTTP-status failures as
// *Error, but network failures, body-read failures and the 304-without-
// cached-body case as plain errors; this is where those get a taxonomy).
func classifyTransportError(err error) Kind {
	if k, ok := KindOf(err); ok {
		return k
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "context deadline exceeded"):
		return Timeout
	case strings.Contains(msg, "context canceled"):
		return Cancelled
	case strings.Contains(msg, "404"):
		return NotFound
	case strings.Contains(msg, "429"):
		return RateLimited
	default:
		return HttpStatus
	}
}
