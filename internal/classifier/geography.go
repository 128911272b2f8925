package classifier

import "github.com/jonesrussell/north-cloud/market-classifier/internal/domain"

// multiCountry reports whether two or more specific geography families, or
// one family plus an explicit global token, appear in text. Such stories are
// treated as global-market coverage.
func (r *registry) multiCountry(text string) bool {
	hits := 0
	for _, geo := range domain.SpecificGeographies {
		if !r.geoToken[geo].MatchString(text) {
			continue
		}
		hits++
		if hits >= 2 {
			return true
		}
	}
	return hits == 1 && r.globalToken.MatchString(text)
}

// resolveGeography returns the first geography whose pattern matches, in
// enum order, after the multi-country rule.
func (r *registry) resolveGeography(text string) (domain.Geography, bool) {
	if r.multiCountry(text) {
		return domain.GeoGlobal, true
	}
	for _, geo := range domain.Geographies {
		if r.geography[geo].MatchString(text) {
			return geo, true
		}
	}
	return domain.GeoGlobal, false
}
