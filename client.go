package rdap

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/rdapkit/rdap/internal/logx"
)

// Doer is the minimal http.Client interface we depend on (handy for tests/mocks).
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client is a concurrency-safe RDAP client with bootstrap resolution,
// conditional-GET response caching, referral chasing, and contact
// enrichment. It holds no per-query mutable state: the shared *http.Client
// connection pool and the caches use internal synchronization, so one
// Client may be used concurrently from multiple goroutines (§5).
type Client struct {
	// HTTP / defaults
	hc          Doer
	ua          string
	baseTimeout time.Duration
	headerExtra http.Header

	// bootstrap registries (§4.3)
	dnsRegistry        *registry
	ipv4Registry       *registry
	ipv6Registry       *registry
	asnRegistry        *registry
	objectTagsRegistry *registry
	tldOverrides       map[string]string
	tldList            *TLDList
	tldListURL         string
	cacheDir           string

	// caches
	respCache *respCache        // url -> cachedResponse
	baseCache *ttlCache[string] // "family:key" -> resolved base URL, a short-lived layer in front of the registry scan (§9 "linear scan is acceptable... if performance matters, precompute")

	// behavior (§4.5 Configuration)
	maxRetries      int
	backoff         Backoff
	now             func() time.Time
	followReferral  bool
	tlsVerify       bool
	overrideServer  string
	maxRedirects    int
	contactMaxDepth int

	log logx.Logger
}

// New returns a ready Client with good defaults: 30s timeout (§4.5),
// referral-following on, TLS verification on, five IANA bootstrap
// registries, and a silent logger unless WithLogger overrides it.
func New(opts ...Option) *Client {
	c := &Client{
		hc:          nil, // set below once tlsVerify default is known
		ua:          "rdapkit/0.1 (+https://example.invalid)",
		baseTimeout: 30 * time.Second,
		headerExtra: make(http.Header),

		dnsRegistry:        newRegistry(familyDNS, "https://data.iana.org/rdap/dns.json"),
		ipv4Registry:       newRegistry(familyIPv4, "https://data.iana.org/rdap/ipv4.json"),
		ipv6Registry:       newRegistry(familyIPv6, "https://data.iana.org/rdap/ipv6.json"),
		asnRegistry:        newRegistry(familyASN, "https://data.iana.org/rdap/asn.json"),
		objectTagsRegistry: newRegistry(familyObjectTags, "https://data.iana.org/rdap/object-tags.json"),
		tldOverrides:       make(map[string]string),
		tldList:            NewTLDList(),
		tldListURL:         defaultTLDListURL,

		respCache: newRespCache(512, 10*time.Minute),
		baseCache: newTTLCache[string](10*time.Minute, 256),

		maxRetries:      2,
		backoff:         ExponentialBackoff(200*time.Millisecond, 2.0, 2*time.Second),
		now:             time.Now,
		followReferral:  true,
		tlsVerify:       true,
		maxRedirects:    10,
		contactMaxDepth: 16,

		log: logx.NewSilent(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.hc == nil {
		c.hc = defaultHTTPClient(c)
	}
	return c
}

func defaultHTTPClient(c *Client) *http.Client {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: !c.tlsVerify},
	}
	return &http.Client{
		Timeout:       45 * time.Second,
		Transport:     &redirectContentTypeTracker{rt: transport},
		CheckRedirect: redirectPolicy(c.maxRedirects),
	}
}

// ctxKeyRedirectContentType carries a *string (set by
// redirectContentTypeTracker after each hop) through a request's redirect
// chain, since http.Client reuses one context across every hop of a single
// Do call.
type ctxKeyRedirectContentType struct{}

// redirectContentTypeTracker wraps the real transport and records each
// response's Content-Type where redirectPolicy can see it: CheckRedirect
// only receives the *next* request, never the response that produced the
// redirect, so there is no other way to implement the "-or-RDAP-JSON" half
// of §4.5's cross-origin redirect allowance.
type redirectContentTypeTracker struct{ rt http.RoundTripper }

func (t *redirectContentTypeTracker) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.rt.RoundTrip(req)
	if resp != nil {
		if ct, ok := req.Context().Value(ctxKeyRedirectContentType{}).(*string); ok {
			*ct = resp.Header.Get("Content-Type")
		}
	}
	return resp, err
}

// withRedirectContentTypeTracking attaches the pointer redirectPolicy reads
// from to ctx, so getJSON's per-attempt request (and every hop Go's
// http.Client derives from it) shares one tracked value.
func withRedirectContentTypeTracking(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKeyRedirectContentType{}, new(string))
}

// redirectPolicy caps redirects at n hops and restricts cross-host hops to
// responses that identify as RDAP/JSON (§4.5: "capped at 10 hops,
// same-origin or RDAP-JSON responses only"); content-type is validated
// again after the final hop in getJSON regardless.
func redirectPolicy(n int) func(req *http.Request, via []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= n {
			return newErr("redirect", DecodeError, fmt.Errorf("stopped after %d redirects", n))
		}
		if req.URL.Host == via[0].URL.Host {
			return nil
		}
		if ct, ok := req.Context().Value(ctxKeyRedirectContentType{}).(*string); ok && acceptableContentType(*ct) && *ct != "" {
			return nil
		}
		return newErr("redirect", DecodeError, fmt.Errorf("cross-origin redirect to %s blocked", req.URL.Host))
	}
}
