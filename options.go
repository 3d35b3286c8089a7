package rdap

import (
	"time"

	"github.com/rdapkit/rdap/internal/logx"
)

// Option configures a Client at construction time (functional-options
// shape, kept from the teacher unchanged).
type Option func(*Client)

func WithHTTPDoer(d Doer) Option         { return func(c *Client) { c.hc = d } }
func WithUserAgent(ua string) Option     { return func(c *Client) { c.ua = ua } }
func WithTimeout(d time.Duration) Option { return func(c *Client) { c.baseTimeout = d } }
func WithMaxRetries(n int) Option        { return func(c *Client) { c.maxRetries = n } }
func WithBackoff(b Backoff) Option       { return func(c *Client) { c.backoff = b } }
func WithHeader(k, v string) Option      { return func(c *Client) { c.headerExtra.Add(k, v) } }
func WithLogger(l logx.Logger) Option    { return func(c *Client) { c.log = l } }
func WithCacheDir(dir string) Option     { return func(c *Client) { c.cacheDir = dir } }
func WithMaxRedirects(n int) Option      { return func(c *Client) { c.maxRedirects = n } }
func WithContactMaxDepth(n int) Option   { return func(c *Client) { c.contactMaxDepth = n } }

// WithFollowReferral toggles the registry->registrar referral chase for
// domain queries (default on, §4.5 Configuration).
func WithFollowReferral(follow bool) Option { return func(c *Client) { c.followReferral = follow } }

// WithTLSVerify toggles certificate verification (default on, §4.5
// Configuration). It has no effect when WithHTTPDoer supplies the doer,
// since New only builds its own *http.Transport from this flag when no
// doer was supplied.
func WithTLSVerify(verify bool) Option { return func(c *Client) { c.tlsVerify = verify } }

// WithOverrideServer forces every query onto this base URL, bypassing
// bootstrap resolution entirely (the CLI's -s/--server flag).
// Entity/Nameserver/*Search queries have no bootstrap mapping per §4.3;
// without this option they resolve only when the query carries a ~TAG
// listed in the object-tags registry.
func WithOverrideServer(u string) Option { return func(c *Client) { c.overrideServer = u } }

// WithBootstrapURL overrides the domain (dns.json) bootstrap registry URL.
func WithBootstrapURL(u string) Option { return func(c *Client) { c.dnsRegistry.url = u } }

// WithIPBootstrapURL overrides both the ipv4.json and ipv6.json bootstrap
// registry URLs to the same address; use WithIPv4BootstrapURL /
// WithIPv6BootstrapURL to set them independently.
func WithIPBootstrapURL(u string) Option {
	return func(c *Client) {
		c.ipv4Registry.url = u
		c.ipv6Registry.url = u
	}
}

func WithIPv4BootstrapURL(u string) Option { return func(c *Client) { c.ipv4Registry.url = u } }
func WithIPv6BootstrapURL(u string) Option { return func(c *Client) { c.ipv6Registry.url = u } }
func WithASNBootstrapURL(u string) Option  { return func(c *Client) { c.asnRegistry.url = u } }
func WithObjectTagsBootstrapURL(u string) Option {
	return func(c *Client) { c.objectTagsRegistry.url = u }
}

// WithTLDOverrides merges m into the TLD-override map consulted ahead of
// the domain bootstrap registry (§4.3 "(a) If tld is present in the
// TLD-override map, use its URL").
func WithTLDOverrides(m map[string]string) Option {
	return func(c *Client) {
		for k, v := range m {
			c.tldOverrides[lower(k)] = v
		}
	}
}

// WithTLDList replaces the classifier's IANA TLD list (§4.2 rule 4).
func WithTLDList(l *TLDList) Option { return func(c *Client) { c.tldList = l } }

// WithTLDListURL overrides the URL the TLD list is lazily fetched from the
// first time a query needs classifier rule 4 and no cached copy exists
// (§6; the "tlds.txt" config layer is Config.TLDListURL via ApplyConfig).
func WithTLDListURL(u string) Option { return func(c *Client) { c.tldListURL = u } }

// WithCacheSizes resizes the response cache's LRU capacity; 0 leaves it
// unchanged.
func WithCacheSizes(responseCacheCapacity int) Option {
	return func(c *Client) {
		if responseCacheCapacity > 0 {
			c.respCache.Resize(responseCacheCapacity)
		}
	}
}
