package rdap

import (
	"encoding/json"
)

// RdapObject is the union interface implemented by every decoded variant:
// the typed object classes, Help, SearchResult, ErrorObject, and Unknown.
type RdapObject interface {
	GetObjectClassName() string
	Warnings() []DecodeWarning
}

// ParseObject inspects objectClassName (or, absent that, errorCode) and
// returns a typed RdapObject per RFC 9083. An unrecognized objectClassName
// never fails outright; it decodes to Unknown so callers can still
// serialize the original body (invariant 1, §3).
func ParseObject(m map[string]any) (RdapObject, error) {
	if m == nil {
		return nil, newErr("ParseObject", DecodeError, errString("nil RDAP object"))
	}

	ocn, hasOCN := m["objectClassName"].(string)
	if !hasOCN {
		if _, hasCode := m["errorCode"]; hasCode {
			var v ErrorObject
			warnings := decodeLenient(m, &v)
			v.DecodeWarnings = warnings
			return v, nil
		}
		if _, hasDomains := m["domainSearchResults"]; hasDomains {
			return decodeSearchResult(m)
		}
		if _, hasNS := m["nameserverSearchResults"]; hasNS {
			return decodeSearchResult(m)
		}
		if _, hasEnt := m["entitySearchResults"]; hasEnt {
			return decodeSearchResult(m)
		}
		// A bare notices-only envelope is the "help" response.
		if _, hasNotices := m["notices"]; hasNotices {
			var v Help
			v.DecodeWarnings = decodeLenient(m, &v)
			return v, nil
		}
		return Unknown{ObjectClassName: "", Raw: m}, nil
	}

	switch lower(ocn) {
	case "entity":
		var v Entity
		v.DecodeWarnings = decodeLenient(m, &v)
		if !v.Validate() {
			return nil, newErr("ParseObject", DecodeError, errString("invalid entity objectClassName"))
		}
		return &v, nil
	case "domain":
		var v Domain
		v.DecodeWarnings = decodeLenient(m, &v)
		if !v.Validate() {
			return nil, newErr("ParseObject", DecodeError, errString("invalid domain objectClassName"))
		}
		return &v, nil
	case "nameserver":
		var v Nameserver
		v.DecodeWarnings = decodeLenient(m, &v)
		if !v.Validate() {
			return nil, newErr("ParseObject", DecodeError, errString("invalid nameserver objectClassName"))
		}
		return &v, nil
	case "ip network":
		var v IPNetwork
		v.DecodeWarnings = decodeLenient(m, &v)
		if !v.Validate() {
			return nil, newErr("ParseObject", DecodeError, errString("invalid ip network objectClassName"))
		}
		return &v, nil
	case "autnum":
		var v Autnum
		v.DecodeWarnings = decodeLenient(m, &v)
		if !v.Validate() {
			return nil, newErr("ParseObject", DecodeError, errString("invalid autnum objectClassName"))
		}
		return &v, nil
	default:
		return Unknown{ObjectClassName: ocn, Raw: m}, nil
	}
}

func decodeSearchResult(m map[string]any) (RdapObject, error) {
	var v SearchResult
	v.DecodeWarnings = decodeLenient(m, &v)
	return v, nil
}

// decodeLenient decodes m into v field-by-field: a strict decode is
// attempted first; if it fails, each top-level key is decoded in isolation
// so a single malformed field doesn't fail the whole object, and the
// failing fields are reported as DecodeWarnings (§4.4).
func decodeLenient(m map[string]any, v any) []DecodeWarning {
	b, err := json.Marshal(m)
	if err != nil {
		return []DecodeWarning{{Field: "*", Reason: err.Error()}}
	}
	if err := json.Unmarshal(b, v); err == nil {
		return nil
	}

	var warnings []DecodeWarning
	for k, val := range m {
		single := map[string]any{k: val}
		sb, err := json.Marshal(single)
		if err != nil {
			warnings = append(warnings, DecodeWarning{Field: k, Reason: err.Error()})
			continue
		}
		if err := json.Unmarshal(sb, v); err != nil {
			warnings = append(warnings, DecodeWarning{Field: k, Reason: err.Error()})
		}
	}
	return warnings
}

type simpleError string

func (e simpleError) Error() string { return string(e) }

func errString(s string) error { return simpleError(s) }
