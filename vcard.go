package rdap

import "strings"

// VCard wraps the jCard tuple-of-tuples shape (RFC 7095 / RFC 6350):
//
//	["vcard", [ [name, params, type, value...], ... ]]
//
// The raw structure is irregular and deeply nested by design (per the
// jCard-opacity design note); VCard indexes it by lower-cased property name
// when parsed (ParseVCard) and exposes narrow accessors rather than a flattened
// typed record, so unrecognized extensions are never silently dropped.
type VCard struct {
	props map[string][][]any
	raw   any
}

// ParseVCard accepts the raw value of an Entity's VCardArray field (any
// JSON value) and returns a VCard, or ok=false if it isn't jCard-shaped.
func ParseVCard(v any) (VCard, bool) {
	arr, ok := v.([]any)
	if !ok || len(arr) != 2 {
		return VCard{}, false
	}
	if tag, ok := arr[0].(string); !ok || strings.ToLower(tag) != "vcard" {
		return VCard{}, false
	}
	tuples, ok := arr[1].([]any)
	if !ok {
		return VCard{}, false
	}
	vc := VCard{props: make(map[string][][]any), raw: v}
	for _, t := range tuples {
		tuple, ok := t.([]any)
		if !ok || len(tuple) < 1 {
			continue
		}
		name, ok := tuple[0].(string)
		if !ok {
			continue
		}
		key := strings.ToLower(name)
		vc.props[key] = append(vc.props[key], tuple)
	}
	return vc, true
}

// Raw returns the original value VCard was built from, for opaque pass-through.
func (v VCard) Raw() any { return v.raw }

// firstValue returns the single value element (tuple index 3) of the first
// occurrence of prop, or nil if absent. Per RFC 7095, a jCard tuple carries
// exactly one value element: a plain string for simple properties ("fn",
// "email") or a nested array of ordered components for structured
// properties ("n", "adr").
func (v VCard) firstValue(prop string) any {
	tuples := v.props[prop]
	if len(tuples) == 0 {
		return nil
	}
	t := tuples[0]
	if len(t) < 4 {
		return nil
	}
	return t[3]
}

func (v VCard) firstString(prop string) string {
	s, _ := v.firstValue(prop).(string)
	return s
}

// components unwraps a structured property's value into its ordered
// sub-components ("n", "adr"); a malformed or absent value yields nil, and
// every positional accessor then reports the empty string rather than
// conflating absence with an empty-but-present component.
func (v VCard) components(prop string) []any {
	val := v.firstValue(prop)
	if arr, ok := val.([]any); ok {
		return arr
	}
	return nil
}

// FN returns the full formatted name ("fn" property).
func (v VCard) FN() string { return v.firstString("fn") }

// Name is the structured name ("n" property): five ordered components.
type Name struct {
	Family, Given, Additional, Prefix, Suffix string
}

// N returns the structured name, its five components in RFC 6350 order.
func (v VCard) N() Name {
	vals := v.components("n")
	get := func(i int) string {
		if i >= len(vals) {
			return ""
		}
		s, _ := vals[i].(string)
		return s
	}
	return Name{
		Family:     get(0),
		Given:      get(1),
		Additional: get(2),
		Prefix:     get(3),
		Suffix:     get(4),
	}
}

// Org returns the organization name ("org" property).
func (v VCard) Org() string { return v.firstString("org") }

// Emails returns every "email" property's value, in declaration order.
func (v VCard) Emails() []string { return v.allStrings("email") }

// Tels returns every "tel" property's value, in declaration order.
func (v VCard) Tels() []string { return v.allStrings("tel") }

// URL returns the "url" property.
func (v VCard) URL() string { return v.firstString("url") }

// Role returns the "role" property.
func (v VCard) Role() string { return v.firstString("role") }

func (v VCard) allStrings(prop string) []string {
	tuples := v.props[prop]
	out := make([]string, 0, len(tuples))
	for _, t := range tuples {
		if len(t) < 4 {
			continue
		}
		if s, ok := t[3].(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Adr is the seven ordered positional components of the "adr" property
// (po-box, extended, street, locality, region, postal-code, country).
// Empty positions are empty strings, never conflated with absence.
type Adr struct {
	POBox, Extended, Street, Locality, Region, PostalCode, Country string
}

// Adr returns the first "adr" property's structured components.
func (v VCard) Adr() Adr {
	vals := v.components("adr")
	get := func(i int) string {
		if i >= len(vals) {
			return ""
		}
		s, _ := vals[i].(string)
		return s
	}
	return Adr{
		POBox:      get(0),
		Extended:   get(1),
		Street:     get(2),
		Locality:   get(3),
		Region:     get(4),
		PostalCode: get(5),
		Country:    get(6),
	}
}
