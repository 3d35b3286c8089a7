package rdap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestQuery_DomainWithReferralAndAbuseContact exercises the full pipeline
// for spec.md §8 scenarios 4 (referral chase) and 5 (abuse contact
// extraction) in one pass: a registry-level domain response naming a
// registrar entity with a "related" link, and a nested abuse entity with a
// vCard email.
func TestQuery_DomainWithReferralAndAbuseContact(t *testing.T) {
	var registrarURL string

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/dns.json"):
			_, _ = io.WriteString(w, fmt.Sprintf(`{"services":[[["example"],["%s"]]]}`, registrarURL))
		case strings.HasPrefix(r.URL.Path, "/domain/google.example"):
			domain := fmt.Sprintf(`{
				"objectClassName": "domain",
				"ldhName": "google.example",
				"handle": "GOOGLE-EXAMPLE",
				"entities": [
					{
						"objectClassName": "entity",
						"handle": "REG1",
						"roles": ["registrar"],
						"links": [{"rel": "related", "href": "%s/registrar-referral/domain/google.example"}]
					},
					{
						"objectClassName": "entity",
						"handle": "ABUSE1",
						"roles": ["abuse"],
						"vcardArray": ["vcard", [["email", {}, "text", "abuse@example.com"]]]
					}
				]
			}`, registrarURL)
			w.Header().Set("Content-Type", "application/rdap+json")
			_, _ = io.WriteString(w, domain)
		case strings.HasPrefix(r.URL.Path, "/registrar-referral/domain/google.example"):
			w.Header().Set("Content-Type", "application/rdap+json")
			_, _ = io.WriteString(w, `{
				"objectClassName": "domain",
				"ldhName": "google.example",
				"handle": "GOOGLE-EXAMPLE-REGISTRAR"
			}`)
		default:
			http.NotFound(w, r)
		}
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()
	registrarURL = ts.URL

	c := New(WithBootstrapURL(ts.URL + "/dns.json"))
	res, err := c.Query(context.Background(), "google.example")
	if err != nil {
		t.Fatalf("Query err: %v", err)
	}

	d, ok := res.Registry.(*Domain)
	if !ok {
		t.Fatalf("want *Domain registry object, got %T", res.Registry)
	}
	if d.Handle != "GOOGLE-EXAMPLE" {
		t.Fatalf("unexpected registry handle: %q", d.Handle)
	}

	if res.Registrar == nil {
		t.Fatalf("expected a registrar referral to have been followed")
	}
	rd, ok := res.Registrar.(*Domain)
	if !ok {
		t.Fatalf("want *Domain registrar object, got %T", res.Registrar)
	}
	if rd.Handle != "GOOGLE-EXAMPLE-REGISTRAR" {
		t.Fatalf("unexpected registrar handle: %q", rd.Handle)
	}
	if res.RegistrarURL == "" || res.RegistrarURL == res.RegistryURL {
		t.Fatalf("registrar URL should be distinct from the registry URL: %q vs %q", res.RegistrarURL, res.RegistryURL)
	}

	if res.AbuseContact != "abuse@example.com" {
		t.Fatalf("abuseContact = %q, want abuse@example.com", res.AbuseContact)
	}
}

func TestQuery_NoReferralWhenDisabled(t *testing.T) {
	var srvURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/dns.json"):
			_, _ = io.WriteString(w, fmt.Sprintf(`{"services":[[["example"],["%s"]]]}`, srvURL))
		case strings.HasPrefix(r.URL.Path, "/domain/"):
			w.Header().Set("Content-Type", "application/rdap+json")
			_, _ = io.WriteString(w, `{
				"objectClassName": "domain",
				"ldhName": "noref.example",
				"entities": [
					{"objectClassName":"entity","handle":"REG1","roles":["registrar"],
					 "links":[{"rel":"related","href":"`+srvURL+`/domain/noref.example"}]}
				]
			}`)
		default:
			http.NotFound(w, r)
		}
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()
	srvURL = ts.URL

	c := New(WithBootstrapURL(ts.URL+"/dns.json"), WithFollowReferral(false))
	res, err := c.Query(context.Background(), "noref.example")
	if err != nil {
		t.Fatalf("Query err: %v", err)
	}
	if res.Registrar != nil {
		t.Fatalf("referral following was disabled; Registrar should be nil, got %+v", res.Registrar)
	}
}

func TestQuery_ReferralFailureIsNonFatal(t *testing.T) {
	var srvURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/dns.json"):
			_, _ = io.WriteString(w, fmt.Sprintf(`{"services":[[["example"],["%s"]]]}`, srvURL))
		case strings.HasPrefix(r.URL.Path, "/domain/broken-referral.example"):
			w.Header().Set("Content-Type", "application/rdap+json")
			_, _ = io.WriteString(w, `{
				"objectClassName": "domain",
				"ldhName": "broken-referral.example",
				"entities": [
					{"objectClassName":"entity","handle":"REG1","roles":["registrar"],
					 "links":[{"rel":"related","href":"`+srvURL+`/domain/does-not-exist.example"}]}
				]
			}`)
		default:
			http.NotFound(w, r)
		}
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()
	srvURL = ts.URL

	c := New(WithBootstrapURL(ts.URL + "/dns.json"))
	res, err := c.Query(context.Background(), "broken-referral.example")
	if err != nil {
		t.Fatalf("a failed referral hop must not fail the primary query: %v", err)
	}
	if res.Registrar != nil {
		t.Fatalf("failed referral should leave Registrar unset, got %+v", res.Registrar)
	}
	if res.Registry == nil {
		t.Fatalf("registry result must still be present")
	}
}

func TestQuery_RequiresExplicitServerForEntity(t *testing.T) {
	c := New()
	_, err := c.Query(context.Background(), "ABC123-NOTAG")
	if err == nil {
		t.Fatalf("expected an error for an entity query with no bootstrap mapping and no override server")
	}
	if k, ok := KindOf(err); !ok || k != RequiresExplicitServer {
		t.Fatalf("expected RequiresExplicitServer, got %v", err)
	}
}

func TestNameserver_MatchesQueryAsResolution(t *testing.T) {
	// Per spec.md §4.3, nameservers have no bootstrap mapping: both entry
	// points for the same host must resolve (or fail) identically.
	c := New()
	_, err := c.Nameserver(context.Background(), "ns1.example.com")
	if err == nil {
		t.Fatalf("expected an error with no override server")
	}
	if k, ok := KindOf(err); !ok || k != RequiresExplicitServer {
		t.Fatalf("expected RequiresExplicitServer, got %v", err)
	}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rdap+json")
		_, _ = io.WriteString(w, `{"objectClassName":"nameserver","ldhName":"ns1.example.com"}`)
	}))
	defer ts.Close()

	c2 := New(WithOverrideServer(ts.URL))
	ns, err := c2.Nameserver(context.Background(), "ns1.example.com")
	if err != nil {
		t.Fatalf("Nameserver err with override server: %v", err)
	}
	res, err := c2.QueryAs(context.Background(), "ns1.example.com", KindNameserver)
	if err != nil {
		t.Fatalf("QueryAs err with override server: %v", err)
	}
	qns, ok := res.Registry.(*Nameserver)
	if !ok {
		t.Fatalf("want *Nameserver, got %T", res.Registry)
	}
	if ns.LDHName != qns.LDHName {
		t.Fatalf("Nameserver() and QueryAs(KindNameserver) diverged: %q vs %q", ns.LDHName, qns.LDHName)
	}
}

func TestQuery_ExplicitKindOverrideBypassesClassifier(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rdap+json")
		_, _ = io.WriteString(w, `{"objectClassName":"entity","handle":"OVERRIDE-1"}`)
	}))
	defer ts.Close()

	c := New(WithOverrideServer(ts.URL))
	// "15169" would normally classify as Autnum; force Entity instead.
	res, err := c.QueryAs(context.Background(), "15169", KindEntity)
	if err != nil {
		t.Fatalf("QueryAs err: %v", err)
	}
	e, ok := res.Registry.(*Entity)
	if !ok {
		t.Fatalf("want *Entity, got %T", res.Registry)
	}
	if e.Handle != "OVERRIDE-1" {
		t.Fatalf("unexpected handle: %q", e.Handle)
	}
}

// TestQuery_BareTldResolvesViaLazilyLoadedTLDList covers spec.md §8
// scenario 3 end to end: a bare token with no explicit override must
// classify as Tld (not Entity/RequiresExplicitServer) by consulting the
// IANA TLD list the Client fetches lazily on first use, exercising the
// config->client wiring this test guards against regressing (New() with no
// WithTLDList call must still resolve a bare TLD).
func TestQuery_BareTldResolvesViaLazilyLoadedTLDList(t *testing.T) {
	var rootURL string

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/tlds-alpha-by-domain.txt"):
			io.WriteString(w, "# Version 2024073100, Last Updated Mon Jul 31 07:07:01 2024 UTC\nCOM\nGOOGLE\n")
		case strings.HasSuffix(r.URL.Path, "/dns.json"):
			io.WriteString(w, fmt.Sprintf(`{"services":[[["google"],["%s"]]]}`, rootURL))
		case strings.HasPrefix(r.URL.Path, "/domain/google"):
			w.Header().Set("Content-Type", "application/rdap+json")
			io.WriteString(w, `{"objectClassName":"domain","ldhName":"google"}`)
		default:
			http.NotFound(w, r)
		}
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()
	rootURL = ts.URL

	c := New(WithBootstrapURL(ts.URL+"/dns.json"), WithTLDListURL(ts.URL+"/tlds-alpha-by-domain.txt"))
	res, err := c.Query(context.Background(), "google")
	if err != nil {
		t.Fatalf("Query(\"google\") err: %v", err)
	}
	if res.Query.Raw != "google" {
		t.Fatalf("unexpected echoed query: %+v", res.Query)
	}
	d, ok := res.Registry.(*Domain)
	if !ok {
		t.Fatalf("want *Domain registry object, got %T", res.Registry)
	}
	if d.LDHName != "google" {
		t.Fatalf("unexpected ldhName: %q", d.LDHName)
	}
	if !c.tldList.Has("google") {
		t.Fatalf("expected the lazily fetched list to contain google")
	}
}

func TestPathForQuery(t *testing.T) {
	cases := []struct {
		qt   QueryType
		want string
	}{
		{QueryType{Kind: KindDomain, Raw: "example.com"}, "/domain/example.com"},
		{QueryType{Kind: KindTld, Raw: "com"}, "/domain/com"},
		{QueryType{Kind: KindIp, Normalized: "1.0.0.1"}, "/ip/1.0.0.1"},
		{QueryType{Kind: KindCidr, Normalized: "1.0.0.0/8"}, "/ip/1.0.0.0/8"},
		{QueryType{Kind: KindAutnum, Normalized: "15169"}, "/autnum/15169"},
		{QueryType{Kind: KindEntity, Raw: "ABC-1"}, "/entity/ABC-1"},
		{QueryType{Kind: KindNameserver, Raw: "ns1.example.com"}, "/nameserver/ns1.example.com"},
	}
	for _, c := range cases {
		got, err := pathForQuery(c.qt)
		if err != nil {
			t.Fatalf("pathForQuery(%+v): %v", c.qt, err)
		}
		if got != c.want {
			t.Fatalf("pathForQuery(%+v) = %q, want %q", c.qt, got, c.want)
		}
	}
}
