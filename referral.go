package rdap

import (
	"context"
	"strings"
)

// entityHolder is satisfied by every object class that embeds CommonObject
// (Domain, Entity, IPNetwork, Autnum, Nameserver); it lets the contact walk
// stay generic over the object class that triggered it.
type entityHolder interface {
	GetEntities() []Entity
}

// hasRole reports whether roles contains role, case-insensitively.
func hasRole(roles []string, role string) bool {
	for _, r := range roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// findRegistrarReferral implements §4.5's referral discovery: scan the
// domain's entities for one carrying the "registrar" role, then that
// entity's links for the first "related" link with a non-empty href. The
// link's media type and target are not checked.
func findRegistrarReferral(d *Domain) (string, bool) {
	for _, e := range d.Entities {
		if !hasRole(e.Roles, "registrar") {
			continue
		}
		for _, l := range e.Links {
			if strings.EqualFold(l.Rel, "related") && l.Href != "" {
				return l.Href, true
			}
		}
	}
	return "", false
}

// chaseReferral issues the single registrar-level hop per §4.5: "only one
// referral hop is ever followed; cycles are impossible because only the
// first hop is taken." A decode or transport failure here is logged and
// swallowed; it never fails the primary (registry) result (§7).
func (c *Client) chaseReferral(ctx context.Context, href string) (*Domain, string, error) {
	m, _, err := c.getJSON(ctx, href)
	if err != nil {
		c.log.Err(wrapTransportError("chaseReferral", err), "stage", "referral-fetch", "url", href)
		return nil, href, nil
	}
	obj, err := ParseObject(m)
	if err != nil {
		c.log.Err(err, "stage", "referral-decode", "url", href)
		return nil, href, nil
	}
	d, ok := obj.(*Domain)
	if !ok {
		c.log.Warn("referral object was not a domain", "url", href, "class", obj.GetObjectClassName())
		return nil, href, nil
	}
	return d, href, nil
}

// findContactEmail walks obj's entities (and their nested entities, up to
// maxDepth) looking for the first one carrying role, returning the first
// email from its vCard. Bounded recursion guards against malicious cycles
// in nested entity graphs (§9 "Cyclic data").
func findContactEmail(obj entityHolder, role string, maxDepth int) (string, bool) {
	return findContactEmailDepth(obj.GetEntities(), role, maxDepth)
}

func findContactEmailDepth(entities []Entity, role string, depthRemaining int) (string, bool) {
	if depthRemaining <= 0 {
		return "", false
	}
	for i := range entities {
		e := &entities[i]
		if hasRole(e.Roles, role) {
			if vc, ok := ParseVCard(e.VCardArray); ok {
				if emails := vc.Emails(); len(emails) > 0 {
					return emails[0], true
				}
			}
		}
	}
	for i := range entities {
		if email, ok := findContactEmailDepth(entities[i].Entities, role, depthRemaining-1); ok {
			return email, true
		}
	}
	return "", false
}
