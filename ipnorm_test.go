package rdap

import "testing"

func TestNormalizeIP_ShorthandExpansion(t *testing.T) {
	cases := []struct {
		in       string
		wantForm IPForm
		wantAddr string
	}{
		{"1.1", FormIPv4, "1.0.0.1"},
		{"8.8", FormIPv4, "8.0.0.8"},
		{"192.168.1", FormIPv4, "192.168.0.1"},
		{"192.168.1.1", FormIPv4, "192.168.1.1"},
	}
	for _, c := range cases {
		got, err := NormalizeIP(c.in)
		if err != nil {
			t.Fatalf("NormalizeIP(%q): %v", c.in, err)
		}
		if got.Form != c.wantForm {
			t.Fatalf("NormalizeIP(%q).Form = %v, want %v", c.in, got.Form, c.wantForm)
		}
		if got.Addr != c.wantAddr {
			t.Fatalf("NormalizeIP(%q).Addr = %q, want %q", c.in, got.Addr, c.wantAddr)
		}
	}
}

func TestNormalizeIP_BareIntegerIsNotAnIP(t *testing.T) {
	got, err := NormalizeIP("15169")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Form != NotAnIP {
		t.Fatalf("bare integer should not expand to an IP, got %+v", got)
	}
}

func TestNormalizeIP_IPv6Passthrough(t *testing.T) {
	got, err := NormalizeIP("2001:db8::1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Form != FormIPv6 {
		t.Fatalf("want FormIPv6, got %v", got.Form)
	}
	if got.Family != "v6" {
		t.Fatalf("want family v6, got %q", got.Family)
	}
}

func TestNormalizeIP_CIDR(t *testing.T) {
	got, err := NormalizeIP("1.1/16")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Form != FormCIDR {
		t.Fatalf("want FormCIDR, got %v", got.Form)
	}
	// Shorthand expansion applies to the host portion only; host bits in the
	// mask are preserved verbatim per §4.1's "accept and preserve" policy.
	if got.Prefix != "1.0.0.1/16" {
		t.Fatalf("want shorthand-expanded, unmasked prefix, got %q", got.Prefix)
	}
}

func TestNormalizeIP_MalformedPrefixIsError(t *testing.T) {
	_, err := NormalizeIP("10.0.0.0/abc")
	if err == nil {
		t.Fatalf("expected InvalidQuery error for malformed prefix")
	}
	if k, ok := KindOf(err); !ok || k != InvalidQuery {
		t.Fatalf("expected InvalidQuery kind, got %v", err)
	}
}

func TestNormalizeIP_Idempotent(t *testing.T) {
	for _, in := range []string{"1.1", "8.8.8.8", "2001:db8::1", "10.0/24"} {
		first, err := NormalizeIP(in)
		if err != nil {
			t.Fatalf("NormalizeIP(%q): %v", in, err)
		}
		var again NormalizedIP
		switch first.Form {
		case FormCIDR:
			again, err = NormalizeIP(first.Prefix)
		default:
			again, err = NormalizeIP(first.Addr)
		}
		if err != nil {
			t.Fatalf("re-normalize %q: %v", in, err)
		}
		if again != first {
			t.Fatalf("normalize not idempotent for %q: %+v != %+v", in, again, first)
		}
	}
}

func TestNormalizeIP_PlainNonIPString(t *testing.T) {
	got, err := NormalizeIP("google")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Form != NotAnIP {
		t.Fatalf("want NotAnIP, got %+v", got)
	}
}
