package rdap

import "context"

// Domain returns a typed RDAP Domain per RFC 9083. It is a thin wrapper
// around Query for callers who already know the query type (§4.5).
func (c *Client) Domain(ctx context.Context, fqdn string) (*Domain, error) {
	kind := KindDomain
	res, err := c.query(ctx, RdapRequest{Raw: fqdn, Kind: &kind})
	if err != nil {
		return nil, err
	}
	d, ok := res.Registry.(*Domain)
	if !ok {
		return nil, ErrUnexpectedObject("domain")
	}
	return d, nil
}
