package rdap

import "context"

// Nameserver returns a typed RDAP Nameserver for a hostname. It is a thin
// wrapper around Query for callers who already know the query type (§4.5);
// per §4.3, nameserver queries have no bootstrap mapping, so this resolves
// through the same resolveBase path as Query/QueryAs and fails with
// RequiresExplicitServer absent a client-wide override server.
func (c *Client) Nameserver(ctx context.Context, host string) (*Nameserver, error) {
	kind := KindNameserver
	res, err := c.query(ctx, RdapRequest{Raw: host, Kind: &kind})
	if err != nil {
		return nil, err
	}
	ns, ok := res.Registry.(*Nameserver)
	if !ok {
		return nil, ErrUnexpectedObject("nameserver")
	}
	return ns, nil
}
