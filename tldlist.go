package rdap

import (
	"bufio"
	"io"
	"strings"
	"sync"
	"time"
)

// defaultTLDListURL is IANA's canonical newline-delimited TLD list (§6
// "tlds.txt is a newline-delimited IANA TLD list"), fetched lazily the
// first time the classifier needs rule 4 and a Client wasn't given an
// override via WithTLDListURL/Config.TLDListURL.
const defaultTLDListURL = "https://data.iana.org/TLD/tlds-alpha-by-domain.txt"

// TLDList is a case-insensitive set of IANA top-level domains, built once
// and read thereafter per the Lifecycles clause for bootstrap registries.
// It may be rebuilt wholesale by LoadTLDList/Set, and tracks when it was
// last populated so a Client can apply the same 7-day staleness policy
// (§4.3, §6) it applies to the other five bootstrap registries.
type TLDList struct {
	mu       sync.RWMutex
	set      map[string]struct{}
	loadedAt time.Time
}

// NewTLDList builds an empty list; use LoadTLDList or Set to populate it.
func NewTLDList() *TLDList {
	return &TLDList{set: make(map[string]struct{})}
}

// LoadedAt reports when the list was last populated (the zero Time if
// never).
func (l *TLDList) LoadedAt() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loadedAt
}

// Has reports whether tld (compared case-insensitively) is in the list.
func (l *TLDList) Has(tld string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.set[strings.ToLower(tld)]
	return ok
}

// Set replaces the list's contents atomically and stamps LoadedAt.
func (l *TLDList) Set(tlds []string) {
	m := make(map[string]struct{}, len(tlds))
	for _, t := range tlds {
		m[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	l.mu.Lock()
	l.set = m
	l.loadedAt = time.Now()
	l.mu.Unlock()
}

// LoadTLDList parses a newline-delimited IANA TLD list (tlds.txt), skipping
// the leading "# Version ..." comment line IANA publishes and blank lines.
func LoadTLDList(r io.Reader) (*TLDList, error) {
	tlds, err := parseTLDLines(r)
	if err != nil {
		return nil, err
	}
	l := NewTLDList()
	l.Set(tlds)
	return l, nil
}

// parseTLDLines does LoadTLDList's line-scanning without allocating a
// TLDList, so a Client can reload an existing list (and its Has/LoadedAt
// callers never see an empty set mid-refresh) without swapping in a
// brand-new instance.
func parseTLDLines(r io.Reader) ([]string, error) {
	var tlds []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tlds = append(tlds, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return tlds, nil
}
