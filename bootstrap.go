package rdap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// registryFamily tags which of the five IANA bootstrap files a registry
// holds (spec.md §4.3: domain, ipv4, ipv6, autnum, plus object-tags).
type registryFamily int

const (
	familyDNS registryFamily = iota
	familyIPv4
	familyIPv6
	familyASN
	familyObjectTags
)

func (f registryFamily) fileName() string {
	switch f {
	case familyDNS:
		return "dns.json"
	case familyIPv4:
		return "ipv4.json"
	case familyIPv6:
		return "ipv6.json"
	case familyASN:
		return "asn.json"
	case familyObjectTags:
		return "object-tags.json"
	default:
		return "unknown.json"
	}
}

// registryEntry is one "[[keys...],[urls...]]" service tuple.
type registryEntry struct {
	Keys []string
	URLs []string
}

// registry is a parsed, in-memory copy of one IANA bootstrap file, with
// write-temp-then-rename disk persistence and a 7-day stale-fallback TTL
// (§4.3, §6). It is built once and read thereafter (Lifecycles, §3).
type registry struct {
	mu       sync.RWMutex
	family   registryFamily
	url      string
	entries  []registryEntry
	loadedAt time.Time
}

const bootstrapTTL = 7 * 24 * time.Hour

func newRegistry(family registryFamily, url string) *registry {
	return &registry{family: family, url: url}
}

func (r *registry) snapshot() ([]registryEntry, time.Time) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries, r.loadedAt
}

func (r *registry) set(entries []registryEntry) {
	r.mu.Lock()
	r.entries = entries
	r.loadedAt = time.Now()
	r.mu.Unlock()
}

// ensureFresh loads the registry if it has never been loaded, or reloads it
// when stale; on fetch failure it falls back to whatever is cached (disk or
// memory), per §4.3's "fetch failure falls back to the last cached copy".
func (c *Client) ensureFresh(ctx context.Context, r *registry) error {
	_, loadedAt := r.snapshot()
	if !loadedAt.IsZero() && time.Since(loadedAt) < bootstrapTTL {
		return nil
	}

	if loadedAt.IsZero() {
		if entries, ok := c.loadRegistryFromDisk(r); ok {
			r.set(entries)
			if mt, err := c.diskMTime(r); err == nil && time.Since(mt) < bootstrapTTL {
				return nil
			}
		}
	}

	entries, err := c.fetchRegistry(ctx, r)
	if err != nil {
		_, loadedAt = r.snapshot()
		if !loadedAt.IsZero() {
			if c.log != nil {
				c.log.Warn("bootstrap fetch failed, using stale copy", "url", r.url, "error", err.Error())
			}
			return nil
		}
		return newErr("ensureFresh", BootstrapUnavailable, err)
	}
	r.set(entries)
	c.persistRegistryToDisk(r, entries)
	return nil
}

func (c *Client) fetchRegistry(ctx context.Context, r *registry) ([]registryEntry, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.baseTimeout)
	defer cancel()

	req, _ := http.NewRequestWithContext(reqCtx, http.MethodGet, r.url, nil)
	req.Header.Set("User-Agent", c.ua)
	req.Header.Set("Accept", "application/json")
	copyHeaders(req.Header, c.headerExtra)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bootstrap fetch %s: %s", r.url, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	return parseBootstrapBody(body)
}

func parseBootstrapBody(body []byte) ([]registryEntry, error) {
	var doc struct {
		Services [][]any `json:"services"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parse bootstrap: %w", err)
	}
	var entries []registryEntry
	for _, svc := range doc.Services {
		if len(svc) != 2 {
			continue
		}
		keys := toStringSlice(svc[0])
		urls := toStringSlice(svc[1])
		if len(urls) == 0 {
			continue
		}
		for i, u := range urls {
			urls[i] = strings.TrimRight(u, "/")
		}
		entries = append(entries, registryEntry{Keys: keys, URLs: urls})
	}
	return entries, nil
}

func (c *Client) diskPath(r *registry) string {
	if c.cacheDir == "" {
		return ""
	}
	return filepath.Join(c.cacheDir, r.family.fileName())
}

func (c *Client) diskMTime(r *registry) (time.Time, error) {
	p := c.diskPath(r)
	if p == "" {
		return time.Time{}, fmt.Errorf("no cache dir configured")
	}
	fi, err := os.Stat(p)
	if err != nil {
		return time.Time{}, err
	}
	return fi.ModTime(), nil
}

func (c *Client) loadRegistryFromDisk(r *registry) ([]registryEntry, bool) {
	p := c.diskPath(r)
	if p == "" {
		return nil, false
	}
	body, err := os.ReadFile(p)
	if err != nil {
		return nil, false
	}
	entries, err := parseBootstrapBody(body)
	if err != nil {
		return nil, false
	}
	return entries, true
}

// persistRegistryToDisk writes body atomically: write-temp-then-rename, so a
// crash mid-write never corrupts the cached copy (§4.3, §5).
func (c *Client) persistRegistryToDisk(r *registry, entries []registryEntry) {
	p := c.diskPath(r)
	if p == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return
	}
	doc := struct {
		Services [][]any `json:"services"`
	}{}
	for _, e := range entries {
		keys := make([]any, len(e.Keys))
		for i, k := range e.Keys {
			keys[i] = k
		}
		urls := make([]any, len(e.URLs))
		for i, u := range e.URLs {
			urls[i] = u
		}
		doc.Services = append(doc.Services, []any{keys, urls})
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-"+r.family.fileName())
	if err != nil {
		return
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return
	}
	tmp.Close()
	os.Rename(tmpName, p)
}

// resolveDNS implements §4.3's Domain/Tld rule: TLD-override map first, then
// an exact match against the domain bootstrap registry.
func (c *Client) resolveDNS(ctx context.Context, tld string) (string, error) {
	tld = strings.ToLower(strings.TrimPrefix(tld, "."))
	if base, ok := c.tldOverrides[tld]; ok {
		return base, nil
	}
	if err := c.ensureFresh(ctx, c.dnsRegistry); err != nil {
		return "", err
	}
	entries, _ := c.dnsRegistry.snapshot()
	for _, e := range entries {
		for _, k := range e.Keys {
			if strings.ToLower(k) == tld {
				return e.URLs[0], nil
			}
		}
	}
	return "", newErr("resolveDNS", NoAuthoritativeServer, fmt.Errorf("no RDAP base for TLD %q", tld))
}

// resolveASN implements §4.3's Autnum rule: ranges are disjoint by registry
// construction, so the first containing range wins.
func (c *Client) resolveASN(ctx context.Context, asn uint64) (string, error) {
	if err := c.ensureFresh(ctx, c.asnRegistry); err != nil {
		return "", err
	}
	entries, _ := c.asnRegistry.snapshot()
	for _, e := range entries {
		for _, k := range e.Keys {
			lo, hi, ok := parseASNRange(k)
			if !ok {
				continue
			}
			if asn >= lo && asn <= hi {
				return e.URLs[0], nil
			}
		}
	}
	return "", newErr("resolveASN", NoAuthoritativeServer, fmt.Errorf("no RDAP base for AS%d", asn))
}

func parseASNRange(s string) (uint64, uint64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, false
	}
	if i := strings.IndexByte(s, '-'); i >= 0 {
		lo, err1 := strconv.ParseUint(strings.TrimSpace(s[:i]), 10, 64)
		hi, err2 := strconv.ParseUint(strings.TrimSpace(s[i+1:]), 10, 64)
		if err1 != nil || err2 != nil || hi < lo {
			return 0, 0, false
		}
		return lo, hi, true
	}
	x, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return x, x, true
}

// resolveIP implements §4.3's Ip/Cidr rule: longest-prefix match across all
// service keys, family-selected; ties broken by entry (file) order.
func (c *Client) resolveIP(ctx context.Context, addr netip.Addr) (string, error) {
	r := c.ipv4Registry
	if addr.Is6() {
		r = c.ipv6Registry
	}
	if err := c.ensureFresh(ctx, r); err != nil {
		return "", err
	}
	entries, _ := r.snapshot()

	var bestBase string
	bestBits := -1
	for _, e := range entries {
		for _, k := range e.Keys {
			pfx, err := netip.ParsePrefix(strings.TrimSpace(k))
			if err != nil {
				continue
			}
			if pfx.Addr().Is6() != addr.Is6() {
				continue
			}
			if pfx.Contains(addr) && pfx.Bits() > bestBits {
				bestBits = pfx.Bits()
				bestBase = e.URLs[0]
			}
		}
	}
	if bestBase != "" {
		return bestBase, nil
	}
	return "", newErr("resolveIP", NoAuthoritativeServer, fmt.Errorf("no RDAP base for %s", addr))
}

// resolveIPCIDR implements §4.3's Cidr rule: the service whose prefix
// fully contains the queried CIDR and is maximal in length wins, ties
// broken by file order, mirroring resolveIP's address-based match.
func (c *Client) resolveIPCIDR(ctx context.Context, q netip.Prefix) (string, error) {
	r := c.ipv4Registry
	if q.Addr().Is6() {
		r = c.ipv6Registry
	}
	if err := c.ensureFresh(ctx, r); err != nil {
		return "", err
	}
	entries, _ := r.snapshot()

	var bestBase string
	bestBits := -1
	for _, e := range entries {
		for _, k := range e.Keys {
			pfx, err := netip.ParsePrefix(strings.TrimSpace(k))
			if err != nil {
				continue
			}
			if pfx.Addr().Is6() != q.Addr().Is6() {
				continue
			}
			if pfx.Bits() <= q.Bits() && pfx.Contains(q.Addr()) && pfx.Bits() > bestBits {
				bestBits = pfx.Bits()
				bestBase = e.URLs[0]
			}
		}
	}
	if bestBase != "" {
		return bestBase, nil
	}
	return "", newErr("resolveIPCIDR", NoAuthoritativeServer, fmt.Errorf("no RDAP base for %s", q))
}

// resolveObjectTag resolves an entity handle's "~TAG" suffix against the
// IANA object-tags registry, grounded on the openrdap service-provider
// registry's tag-suffix lookup.
func (c *Client) resolveObjectTag(ctx context.Context, handle string) (string, bool) {
	i := strings.LastIndexByte(handle, '~')
	if i < 0 || i == len(handle)-1 {
		return "", false
	}
	tag := strings.ToUpper(handle[i+1:])
	if err := c.ensureFresh(ctx, c.objectTagsRegistry); err != nil {
		return "", false
	}
	entries, _ := c.objectTagsRegistry.snapshot()
	for _, e := range entries {
		for _, k := range e.Keys {
			if strings.ToUpper(k) == tag {
				return e.URLs[0], true
			}
		}
	}
	return "", false
}

// tldListDiskPath returns the on-disk cache path for the IANA TLD list
// (§6 "tlds.txt is a newline-delimited IANA TLD list"), or "" if no cache
// dir is configured.
func (c *Client) tldListDiskPath() string {
	if c.cacheDir == "" {
		return ""
	}
	return filepath.Join(c.cacheDir, "tlds.txt")
}

// ensureFreshTLDList loads the classifier's TLD list if it has never been
// populated, or reloads it once the 7-day TTL has elapsed, mirroring
// ensureFresh's disk-then-network-then-stale-fallback order for the other
// five bootstrap registries (§4.3, §6). A failure here is non-fatal: rule 4
// of the classifier simply falls through to rule 5/6 (domain/entity) for
// this query, matching "Classify... is total; it never fails" (§8).
func (c *Client) ensureFreshTLDList(ctx context.Context) error {
	if loadedAt := c.tldList.LoadedAt(); !loadedAt.IsZero() && time.Since(loadedAt) < bootstrapTTL {
		return nil
	}

	if c.tldList.LoadedAt().IsZero() {
		if p := c.tldListDiskPath(); p != "" {
			if body, err := os.ReadFile(p); err == nil {
				if tlds, err := parseTLDLines(strings.NewReader(string(body))); err == nil {
					c.tldList.Set(tlds)
					if fi, err := os.Stat(p); err == nil && time.Since(fi.ModTime()) < bootstrapTTL {
						return nil
					}
				}
			}
		}
	}

	body, err := c.fetchTLDListBody(ctx)
	if err != nil {
		if !c.tldList.LoadedAt().IsZero() {
			if c.log != nil {
				c.log.Warn("tld list fetch failed, using stale copy", "url", c.tldListURL, "error", err.Error())
			}
			return nil
		}
		return newErr("ensureFreshTLDList", BootstrapUnavailable, err)
	}
	tlds, err := parseTLDLines(strings.NewReader(string(body)))
	if err != nil {
		return newErr("ensureFreshTLDList", BootstrapUnavailable, err)
	}
	c.tldList.Set(tlds)
	c.persistTLDListToDisk(body)
	return nil
}

func (c *Client) fetchTLDListBody(ctx context.Context) ([]byte, error) {
	if c.tldListURL == "" {
		return nil, fmt.Errorf("no tld list URL configured")
	}
	reqCtx, cancel := context.WithTimeout(ctx, c.baseTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.tldListURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.ua)
	req.Header.Set("Accept", "text/plain")
	copyHeaders(req.Header, c.headerExtra)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tld list fetch %s: %s", c.tldListURL, resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 4<<20))
}

func (c *Client) persistTLDListToDisk(body []byte) {
	p := c.tldListDiskPath()
	if p == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-tlds.txt")
	if err != nil {
		return
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return
	}
	tmp.Close()
	os.Rename(tmpName, p)
}

// RefreshTLDList forces a re-fetch of the IANA TLD list now, the TLD-list
// counterpart to RefreshBootstrap (wired into the CLI's -u/--update, §6).
func (c *Client) RefreshTLDList(ctx context.Context) error {
	body, err := c.fetchTLDListBody(ctx)
	if err != nil {
		return newErr("RefreshTLDList", BootstrapUnavailable, err)
	}
	tlds, err := parseTLDLines(strings.NewReader(string(body)))
	if err != nil {
		return newErr("RefreshTLDList", BootstrapUnavailable, err)
	}
	c.tldList.Set(tlds)
	c.persistTLDListToDisk(body)
	return nil
}

// RefreshBootstrap forces a re-fetch of all five bootstrap registries now.
func (c *Client) RefreshBootstrap(ctx context.Context) error {
	for _, r := range []*registry{c.dnsRegistry, c.ipv4Registry, c.ipv6Registry, c.asnRegistry, c.objectTagsRegistry} {
		entries, err := c.fetchRegistry(ctx, r)
		if err != nil {
			return newErr("RefreshBootstrap", BootstrapUnavailable, err)
		}
		r.set(entries)
		c.persistRegistryToDisk(r, entries)
	}
	return nil
}

// PrewarmBootstrap fetches all five registries concurrently; callers may
// invoke this ahead of the hot path (§5 explicitly allows caller-triggered
// parallelism here, never inside a single query).
func (c *Client) PrewarmBootstrap(ctx context.Context) error {
	regs := []*registry{c.dnsRegistry, c.ipv4Registry, c.ipv6Registry, c.asnRegistry, c.objectTagsRegistry}
	errs := make([]error, len(regs))
	var wg sync.WaitGroup
	wg.Add(len(regs))
	for i, r := range regs {
		go func(i int, r *registry) {
			defer wg.Done()
			errs[i] = c.ensureFresh(ctx, r)
		}(i, r)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
