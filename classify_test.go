package rdap

import "testing"

func TestClassify_Total(t *testing.T) {
	inputs := []string{
		"", "   ", "15169", "AS15169", "as15169", "1.1", "8.8.8.8", "2001:db8::1",
		"1.0.0.0/8", "google", "google.com", "sub.example.co.uk", "not_a_domain!!",
		"ABC123-EXAMPLE", "ns1.example.com.",
	}
	for _, in := range inputs {
		qt := Classify(in, nil)
		if qt.Kind.String() == "Unknown" {
			t.Fatalf("Classify(%q) produced an unrecognized Kind", in)
		}
	}
}

func TestClassify_Autnum(t *testing.T) {
	for _, in := range []string{"15169", "AS15169", "as15169", "As15169"} {
		qt := Classify(in, nil)
		if qt.Kind != KindAutnum {
			t.Fatalf("Classify(%q) = %v, want Autnum", in, qt.Kind)
		}
	}
}

func TestClassify_ASPrefixRequiresBothLetters(t *testing.T) {
	// "A123" (missing the "S") must not be mistaken for an AS-prefixed autnum;
	// it falls through to the Entity default.
	if qt := Classify("A123", nil); qt.Kind != KindEntity {
		t.Fatalf("Classify(A123) = %v, want Entity", qt.Kind)
	}
}

func TestClassify_AutnumBeatsTLD(t *testing.T) {
	// A bare integer is always Autnum, even if a same-spelled TLD existed
	// (spec.md §4.2's explicit tie-break between rule 1 and rule 4).
	tlds := NewTLDList()
	tlds.Set([]string{"15169"})
	qt := Classify("15169", tlds)
	if qt.Kind != KindAutnum {
		t.Fatalf("bare integer must classify as Autnum, got %v", qt.Kind)
	}
}

func TestClassify_IpAndCidr(t *testing.T) {
	if qt := Classify("1.1", nil); qt.Kind != KindIp || qt.Normalized != "1.0.0.1" {
		t.Fatalf("Classify(1.1) = %+v", qt)
	}
	if qt := Classify("2001:db8::1", nil); qt.Kind != KindIp {
		t.Fatalf("Classify(ipv6) = %+v", qt)
	}
	if qt := Classify("1.0.0.0/8", nil); qt.Kind != KindCidr || qt.Normalized != "1.0.0.0/8" {
		t.Fatalf("Classify(cidr) = %+v", qt)
	}
}

func TestClassify_TLDRequiresListMembership(t *testing.T) {
	if qt := Classify("google", nil); qt.Kind == KindTld {
		t.Fatalf("no TLD list supplied: google must not classify as Tld")
	}
	tlds := NewTLDList()
	tlds.Set([]string{"com", "google"})
	if qt := Classify("google", tlds); qt.Kind != KindTld {
		t.Fatalf("Classify(google) with matching TLD list = %v, want Tld", qt.Kind)
	}
	if qt := Classify("GOOGLE", tlds); qt.Kind != KindTld {
		t.Fatalf("TLD lookup must be case-insensitive, got %v", qt.Kind)
	}
}

func TestClassify_TLDFallsThroughToEntityWithoutDot(t *testing.T) {
	if qt := Classify("nosuchtld", nil); qt.Kind != KindEntity {
		t.Fatalf("unknown bare LDH token should fall through to Entity, got %v", qt.Kind)
	}
}

func TestClassify_Domain(t *testing.T) {
	for _, in := range []string{"google.com", "sub.example.co.uk", "xn--p1ai.example"} {
		if qt := Classify(in, nil); qt.Kind != KindDomain {
			t.Fatalf("Classify(%q) = %v, want Domain", in, qt.Kind)
		}
	}
}

func TestClassify_EntityFallback(t *testing.T) {
	for _, in := range []string{"ABC123-EXAMPLE", "not_a_domain!!", "under_score"} {
		if qt := Classify(in, nil); qt.Kind != KindEntity {
			t.Fatalf("Classify(%q) = %v, want Entity fallback", in, qt.Kind)
		}
	}
}
