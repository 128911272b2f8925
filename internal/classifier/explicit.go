package classifier

import "github.com/jonesrussell/north-cloud/market-classifier/internal/domain"

// detectExplicit looks for literal "<geography> <domain> market" phrasing in
// either word order. Templates are tried geography-major in enum order, then
// by domain priority, lead form before trail form. When the multi-country
// rule holds the geography side is forced to Global.
func (r *registry) detectExplicit(text string) (domain.Geography, domain.MarketDomain, bool) {
	if text == "" {
		return domain.GeoGlobal, 0, false
	}

	// Both tokens must be present for a template to match, so skip pairs
	// that cannot.
	var geoSeen [domain.NumGeographies]bool
	for _, geo := range domain.Geographies {
		geoSeen[geo] = r.geoToken[geo].MatchString(text)
	}
	var domSeen [domain.NumDomains]bool
	for _, d := range domain.DomainPriority {
		domSeen[d] = r.domainToken[d].MatchString(text)
	}

	for _, p := range r.explicit {
		if !geoSeen[p.geo] || !domSeen[p.domain] {
			continue
		}
		if !p.re.MatchString(text) {
			continue
		}
		if r.multiCountry(text) {
			return domain.GeoGlobal, p.domain, true
		}
		return p.geo, p.domain, true
	}

	return domain.GeoGlobal, 0, false
}
