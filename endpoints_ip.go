package rdap

import (
	"context"
	"fmt"
)

// IP returns a typed RDAP IPNetwork for an address or CIDR block,
// normalizing shorthand IPv4 input first (§4.1). Thin wrapper around
// Query for callers who already know the query type (§4.5).
func (c *Client) IP(ctx context.Context, ipOrCIDR string) (*IPNetwork, error) {
	norm, err := NormalizeIP(ipOrCIDR)
	if err != nil {
		return nil, err
	}
	var kind QueryKind
	switch norm.Form {
	case FormCIDR, FormIPv4, FormIPv6:
		if norm.Form == FormCIDR {
			kind = KindCidr
		} else {
			kind = KindIp
		}
	default:
		return nil, newErr("IP", InvalidQuery, fmt.Errorf("%q is not an IP address or CIDR block", ipOrCIDR))
	}

	res, err := c.query(ctx, RdapRequest{Raw: ipOrCIDR, Kind: &kind})
	if err != nil {
		return nil, err
	}
	ipn, ok := res.Registry.(*IPNetwork)
	if !ok {
		return nil, ErrUnexpectedObject("ip network")
	}
	return ipn, nil
}
