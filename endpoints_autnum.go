package rdap

import "context"

// Autnum returns a typed RDAP Autnum for an ASN given as "AS12345" or
// "12345". Thin wrapper around Query for callers who already know the
// query type (§4.5).
func (c *Client) Autnum(ctx context.Context, asn string) (*Autnum, error) {
	kind := KindAutnum
	res, err := c.query(ctx, RdapRequest{Raw: asn, Kind: &kind})
	if err != nil {
		return nil, err
	}
	a, ok := res.Registry.(*Autnum)
	if !ok {
		return nil, ErrUnexpectedObject("autnum")
	}
	return a, nil
}
