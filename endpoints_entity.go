package rdap

import (
	"context"
	"fmt"
)

// Entity queries an entity handle and returns a typed Entity. Per §4.3,
// entity queries have no bootstrap mapping; the base URL comes from (in
// order) the client-wide override server, an IANA object-tag match on a
// "~TAG" handle suffix, or tldHint as a practical fallback (many entity
// handles resolve under the sponsoring registry's base). tldHint may be
// empty, in which case an unresolved entity fails with
// RequiresExplicitServer.
func (c *Client) Entity(ctx context.Context, handle, tldHint string) (*Entity, error) {
	base, err := c.baseForEntity(ctx, handle, tldHint)
	if err != nil {
		return nil, err
	}
	u := mustJoin(base, "/entity/", handle)
	m, _, err := c.getJSON(ctx, u)
	if err != nil {
		return nil, wrapTransportError("Entity", err)
	}
	obj, err := ParseObject(m)
	if err != nil {
		return nil, err
	}
	e, ok := obj.(*Entity)
	if !ok {
		return nil, ErrUnexpectedObject("entity")
	}
	return e, nil
}

func (c *Client) baseForEntity(ctx context.Context, handle, tldHint string) (string, error) {
	if c.overrideServer != "" {
		return c.overrideServer, nil
	}
	if base, ok := c.resolveObjectTag(ctx, handle); ok {
		return base, nil
	}
	if tl := trimDotLower(tldHint); tl != "" {
		if base, err := c.resolveDNS(ctx, tl); err == nil {
			return base, nil
		}
	}
	return "", newErr("Entity", RequiresExplicitServer, fmt.Errorf("entity %q requires an explicit server (-s/--server, an object-tagged handle, or a TLD hint)", handle))
}
