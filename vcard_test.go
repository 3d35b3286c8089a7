package rdap

import "testing"

func sampleVCardArray() any {
	return []any{
		"vcard",
		[]any{
			[]any{"version", map[string]any{}, "text", "4.0"},
			[]any{"fn", map[string]any{}, "text", "Jane Registrar"},
			[]any{"n", map[string]any{}, "text", []any{"Registrar", "Jane", "", "", ""}},
			[]any{"org", map[string]any{}, "text", "Example Registrar, LLC"},
			[]any{"adr", map[string]any{}, "text", []any{"", "", "123 Main St", "Anytown", "CA", "90210", "US"}},
			[]any{"email", map[string]any{}, "text", "abuse@example.com"},
			[]any{"email", map[string]any{}, "text", "second@example.com"},
			[]any{"tel", map[string]any{"type": []any{"voice"}}, "uri", "tel:+1-555-555-0100"},
			[]any{"url", map[string]any{}, "uri", "https://registrar.example/"},
			[]any{"role", map[string]any{}, "text", "abuse contact"},
		},
	}
}

func TestParseVCard_Accessors(t *testing.T) {
	vc, ok := ParseVCard(sampleVCardArray())
	if !ok {
		t.Fatalf("expected jCard shape to parse")
	}
	if vc.FN() != "Jane Registrar" {
		t.Fatalf("FN() = %q", vc.FN())
	}
	n := vc.N()
	if n.Family != "Registrar" || n.Given != "Jane" {
		t.Fatalf("N() = %+v", n)
	}
	if vc.Org() != "Example Registrar, LLC" {
		t.Fatalf("Org() = %q", vc.Org())
	}
	emails := vc.Emails()
	if len(emails) != 2 || emails[0] != "abuse@example.com" || emails[1] != "second@example.com" {
		t.Fatalf("Emails() = %v", emails)
	}
	if len(vc.Tels()) != 1 {
		t.Fatalf("Tels() = %v", vc.Tels())
	}
	if vc.URL() != "https://registrar.example/" {
		t.Fatalf("URL() = %q", vc.URL())
	}
	if vc.Role() != "abuse contact" {
		t.Fatalf("Role() = %q", vc.Role())
	}

	adr := vc.Adr()
	if adr.Street != "123 Main St" || adr.Locality != "Anytown" || adr.Country != "US" {
		t.Fatalf("Adr() = %+v", adr)
	}
	// Empty positional components must be empty strings, never dropped.
	if adr.POBox != "" || adr.Extended != "" {
		t.Fatalf("Adr() leading empty components should be \"\", got %+v", adr)
	}
}

func TestParseVCard_RejectsNonJCardShapes(t *testing.T) {
	cases := []any{
		nil,
		"not a vcard",
		[]any{"vcard"},
		[]any{"notvcard", []any{}},
		[]any{"vcard", "not-a-slice"},
	}
	for _, c := range cases {
		if _, ok := ParseVCard(c); ok {
			t.Fatalf("ParseVCard(%#v) should not have parsed", c)
		}
	}
}

func TestParseVCard_CaseInsensitiveTag(t *testing.T) {
	if _, ok := ParseVCard([]any{"VCard", []any{}}); !ok {
		t.Fatalf("vcard tag comparison should be case-insensitive")
	}
}

func TestParseVCard_MissingPropertiesReturnZeroValues(t *testing.T) {
	vc, ok := ParseVCard([]any{"vcard", []any{}})
	if !ok {
		t.Fatalf("expected empty-but-valid jCard to parse")
	}
	if vc.FN() != "" || vc.Org() != "" || len(vc.Emails()) != 0 {
		t.Fatalf("absent properties should yield empty values")
	}
	adr := vc.Adr()
	if adr != (Adr{}) {
		t.Fatalf("absent adr should be the zero Adr, got %+v", adr)
	}
}
