package rdap

import "golang.org/x/net/idna"

// idnProfile performs the A-label (punycode) encoding RFC 7480 §4 expects
// servers to receive for internationalized domain labels. This resolves the
// Open Question in spec.md §9 in favor of client-side encoding rather than
// verbatim Unicode pass-through.
var idnProfile = idna.New(
	idna.MapForLookup(),
	idna.BidiRule(),
)

// toASCIILabel A-label-encodes a domain or nameserver query string. Labels
// that are already ASCII round-trip unchanged; a label that fails IDNA
// validation is passed through verbatim so the server, not the client, is
// the final arbiter of what it accepts.
func toASCIILabel(s string) string {
	out, err := idnProfile.ToASCII(s)
	if err != nil {
		return s
	}
	return out
}
