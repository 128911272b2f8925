// Package domain holds the closed market taxonomy and the value types shared
// by the classifier and its collaborators.
package domain

// Geography is the region dimension of a category.
type Geography int

// Geographies in resolution order.
const (
	GeoGlobal Geography = iota
	GeoKorea
	GeoChina
	GeoEurope
	GeoUS
	GeoJapan
	GeoIndia
	geographyCount
)

// NumGeographies is the size of the Geography enum.
const NumGeographies = int(geographyCount)

// MarketDomain is the product or industry dimension of a category.
type MarketDomain int

// Market domains. Declaration order is not the resolution priority; see
// DomainPriority.
const (
	DomainSmartphone MarketDomain = iota
	DomainFoldableSmartphone
	DomainSmartphoneAP
	DomainAI
	DomainXR
	DomainSmartWatch
	DomainSecurity
	DomainTV
	DomainOLED
	DomainLCDTV
	DomainDisplay
	DomainRobotVacuum
	DomainRobot
	DomainSemiconductor
	DomainElectricVehicle
	domainCount
)

// NumDomains is the size of the MarketDomain enum.
const NumDomains = int(domainCount)

// Locale selects the label set used to render categories.
type Locale string

// Supported label locales.
const (
	LocaleEnglish Locale = "en"
	LocaleKorean  Locale = "ko"
)

type labels struct {
	en string
	ko string
}

func (l labels) in(loc Locale) string {
	if loc == LocaleKorean {
		return l.ko
	}
	return l.en
}

var geographyLabels = [geographyCount]labels{
	GeoGlobal: {"Global", "전세계"},
	GeoKorea:  {"Korea", "한국"},
	GeoChina:  {"China", "중국"},
	GeoEurope: {"Europe", "유럽"},
	GeoUS:     {"US", "미국"},
	GeoJapan:  {"Japan", "일본"},
	GeoIndia:  {"India", "인도"},
}

var domainLabels = [domainCount]labels{
	DomainSmartphone:         {"Smartphone", "스마트폰"},
	DomainFoldableSmartphone: {"Foldable Smartphone", "폴더블 스마트폰"},
	DomainSmartphoneAP:       {"Smartphone AP", "스마트폰 AP"},
	DomainAI:                 {"AI", "AI"},
	DomainXR:                 {"XR", "XR"},
	DomainSmartWatch:         {"SmartWatch", "스마트워치"},
	DomainSecurity:           {"Security", "보안"},
	DomainTV:                 {"TV", "TV"},
	DomainOLED:               {"OLED", "OLED"},
	DomainLCDTV:              {"LCD TV", "LCD TV"},
	DomainDisplay:            {"Display", "디스플레이"},
	DomainRobotVacuum:        {"Robot Vacuum", "로봇청소기"},
	DomainRobot:              {"Robot", "로봇"},
	DomainSemiconductor:      {"Semiconductor", "반도체"},
	DomainElectricVehicle:    {"Electric Vehicle", "전기차"},
}

// Geographies lists every geography in resolution order.
var Geographies = []Geography{GeoGlobal, GeoKorea, GeoChina, GeoEurope, GeoUS, GeoJapan, GeoIndia}

// SpecificGeographies are the single-country or single-region families used by
// the multi-country rule.
var SpecificGeographies = []Geography{GeoKorea, GeoChina, GeoEurope, GeoUS, GeoJapan, GeoIndia}

// DomainPriority is the fixed most-specific-first order used when collecting
// and falling back over domain candidates.
var DomainPriority = []MarketDomain{
	DomainFoldableSmartphone,
	DomainSmartphoneAP,
	DomainOLED,
	DomainLCDTV,
	DomainTV,
	DomainXR,
	DomainSmartWatch,
	DomainSecurity,
	DomainRobotVacuum,
	DomainRobot,
	DomainSemiconductor,
	DomainElectricVehicle,
	DomainDisplay,
	DomainAI,
	DomainSmartphone,
}

// Valid reports whether g is a member of the enum.
func (g Geography) Valid() bool { return g >= 0 && g < geographyCount }

// Valid reports whether d is a member of the enum.
func (d MarketDomain) Valid() bool { return d >= 0 && d < domainCount }

// Label renders g in the given locale. Unknown values render as "".
func (g Geography) Label(loc Locale) string {
	if !g.Valid() {
		return ""
	}
	return geographyLabels[g].in(loc)
}

func (g Geography) String() string { return g.Label(LocaleEnglish) }

// Label renders d in the given locale. Unknown values render as "".
func (d MarketDomain) Label(loc Locale) string {
	if !d.Valid() {
		return ""
	}
	return domainLabels[d].in(loc)
}

func (d MarketDomain) String() string { return d.Label(LocaleEnglish) }

// ParseLocale maps a config value to a Locale, defaulting to English.
func ParseLocale(s string) Locale {
	if Locale(s) == LocaleKorean {
		return LocaleKorean
	}
	return LocaleEnglish
}
