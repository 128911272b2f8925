package domain

import "fmt"

// Unclassified sentinels per locale.
const (
	UnclassifiedEnglish = "Unclassified"
	UnclassifiedKorean  = "미분류"
)

// Category is a whitelisted (geography, domain) pair or the Unclassified
// sentinel. The zero value is Unclassified.
type Category struct {
	geo    Geography
	domain MarketDomain
	ok     bool
}

// Unclassified is the sentinel category.
var Unclassified = Category{}

var (
	whitelistEnglish = buildWhitelist(LocaleEnglish)
	whitelistKorean  = buildWhitelist(LocaleKorean)
)

func buildWhitelist(loc Locale) map[string]struct{} {
	set := make(map[string]struct{}, int(geographyCount)*int(domainCount)+1)
	for _, g := range Geographies {
		for d := MarketDomain(0); d < domainCount; d++ {
			set[render(g, d, loc)] = struct{}{}
		}
	}
	set[unclassifiedLabel(loc)] = struct{}{}
	return set
}

func render(g Geography, d MarketDomain, loc Locale) string {
	if loc == LocaleKorean {
		return fmt.Sprintf("%s %s 시장", g.Label(loc), d.Label(loc))
	}
	return fmt.Sprintf("%s %s market", g.Label(loc), d.Label(loc))
}

func unclassifiedLabel(loc Locale) string {
	if loc == LocaleKorean {
		return UnclassifiedKorean
	}
	return UnclassifiedEnglish
}

// IsWhitelisted reports whether s is a valid category string in loc.
func IsWhitelisted(s string, loc Locale) bool {
	set := whitelistEnglish
	if loc == LocaleKorean {
		set = whitelistKorean
	}
	_, ok := set[s]
	return ok
}

// Whitelist returns every valid category string in loc, Unclassified last.
func Whitelist(loc Locale) []string {
	out := make([]string, 0, int(geographyCount)*int(domainCount)+1)
	for _, g := range Geographies {
		for _, d := range DomainPriority {
			out = append(out, render(g, d, loc))
		}
	}
	return append(out, unclassifiedLabel(loc))
}

// Compose combines a geography and a domain into a Category. A missing domain
// yields Unclassified; a missing or out-of-enum geography becomes Global. The
// rendered label is checked against the whitelist before it is accepted.
func Compose(geo Geography, hasGeo bool, d MarketDomain, hasDomain bool) Category {
	if !hasDomain || !d.Valid() {
		return Unclassified
	}
	if !hasGeo || !geo.Valid() {
		geo = GeoGlobal
	}
	if !IsWhitelisted(render(geo, d, LocaleEnglish), LocaleEnglish) {
		return Unclassified
	}
	return Category{geo: geo, domain: d, ok: true}
}

// IsUnclassified reports whether c is the sentinel.
func (c Category) IsUnclassified() bool { return !c.ok }

// Geography returns the category geography; ok is false for Unclassified.
func (c Category) Geography() (Geography, bool) { return c.geo, c.ok }

// Domain returns the category domain; ok is false for Unclassified.
func (c Category) Domain() (MarketDomain, bool) { return c.domain, c.ok }

// Label renders c in loc.
func (c Category) Label(loc Locale) string {
	if !c.ok {
		return unclassifiedLabel(loc)
	}
	return render(c.geo, c.domain, loc)
}

func (c Category) String() string { return c.Label(LocaleEnglish) }
