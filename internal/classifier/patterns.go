package classifier

import (
	"fmt"
	"regexp"

	"github.com/jonesrussell/north-cloud/market-classifier/internal/domain"
)

// PatternVersion identifies the revision of the token registry below. Bump it
// whenever a token list changes so stored reason codes can be traced back.
const PatternVersion = "2026.10.1"

// Default proximity gaps, in characters.
const (
	DefaultGeoMarketGap     = 20
	DefaultExplicitLeadGap  = 30
	DefaultExplicitTrailGap = 10
	DefaultDomainMarketGap  = 15
)

// maxGap keeps bounded repetitions well inside the regexp repeat limit.
const maxGap = 200

// Gaps are the bounded distances used by the proximity templates.
type Gaps struct {
	// GeoMarket is the distance between a region token and "market".
	GeoMarket int
	// ExplicitLead separates geography and domain in explicit phrases.
	ExplicitLead int
	// ExplicitTrail separates the domain token and "market" in explicit phrases.
	ExplicitTrail int
	// DomainMarket is the distance a conservative domain token may sit from "market".
	DomainMarket int
}

// DefaultGaps returns the stock gap configuration.
func DefaultGaps() Gaps {
	return Gaps{
		GeoMarket:     DefaultGeoMarketGap,
		ExplicitLead:  DefaultExplicitLeadGap,
		ExplicitTrail: DefaultExplicitTrailGap,
		DomainMarket:  DefaultDomainMarketGap,
	}
}

func (g Gaps) validate() error {
	for name, v := range map[string]int{
		"geo_market":     g.GeoMarket,
		"explicit_lead":  g.ExplicitLead,
		"explicit_trail": g.ExplicitTrail,
		"domain_market":  g.DomainMarket,
	} {
		if v < 0 || v > maxGap {
			return fmt.Errorf("gap %s=%d out of range [0,%d]", name, v, maxGap)
		}
	}
	return nil
}

const marketWord = `(?:\bmarkets?\b|시장)`

// Geography tokens. Uppercase abbreviations are matched case-sensitively so
// that "us" or "eu" inside prose do not count.
var geographyTokens = map[domain.Geography]string{
	domain.GeoGlobal: `\bglobal\b|\bworld(?:wide|'s)?\b|전\s*세계|세계|글로벌`,
	domain.GeoKorea:  `\bkorean?\b|한국|대한민국|국내`,
	domain.GeoChina:  `\bchina\b|\bchinese\b|중국`,
	domain.GeoEurope: `\beurope(?:an)?\b|(?-i:\bEU\b)|유럽`,
	domain.GeoUS:     `(?-i:\bU\.?S\.?A?\b)|united\s+states|\bamerican?\b|미국`,
	domain.GeoJapan:  `\bjapan(?:ese)?\b|일본`,
	domain.GeoIndia:  `\bindian?\b|인도`,
}

// globalToken is the explicit global/worldwide family used by the
// multi-country rule. Bare "world" is deliberately absent.
const globalToken = `\bglobal\b|\bworldwide\b|전\s*세계|글로벌`

// Domain tokens shared by the explicit-phrase detector and the collector.
var domainTokens = map[domain.MarketDomain]string{
	domain.DomainFoldableSmartphone: `foldable\s*smart\s*phones?|폴더블\s*스마트폰|\bfoldables?\b|폴더블|폴드|플립|\bclamshells?\b|클램셸|클램쉘|` +
		`\bflip\s*phones?\b|\bgalaxy\s*z\b|\bflip\b|\bfold\b|\brazr\b`,
	domain.DomainSmartphoneAP: `(?-i:\bAP\b)|mobile\s*AP|모바일\s*AP|application\s+processors?|(?-i:\bSoCs?\b)|` +
		`\bchipsets?\b|칩셋|snapdragon|스냅드래곤|dimensity|exynos|엑시노스`,
	domain.DomainSmartphone: `smart\s*phones?|스마트폰|휴대폰|핸드폰|mobile\s*phones?|\bhandsets?\b|삼성폰|애플폰`,
	domain.DomainAI:         `\bAI\b|인공지능|생성형\s*AI|generative\s*AI|chatgpt|copilot|gemini|\bLLMs?\b`,
	domain.DomainXR: `(?-i:\b(?:XR|AR|VR|MR)\b)|mixed\s+reality|virtual\s+reality|augmented\s+reality|` +
		`\bheadsets?\b|헤드셋|smart\s*glasses|스마트\s*안경|vision\s*pro`,
	domain.DomainSmartWatch: `smart\s*watch(?:es)?|스마트\s*워치|\bwearables?\b|웨어러블|galaxy\s*watch|apple\s*watch`,
	domain.DomainSecurity:   `cyber\s*security|cyber\s*threats?|사이버\s*보안|사이버\s*위협|보안|\bsecurity\b`,
	domain.DomainTV:         `\bTVs?\b|티비|\btelevisions?\b`,
	domain.DomainOLED:       `OLED\s*TVs?|\bOLED|올레드`,
	domain.DomainLCDTV:      `LCD[\s-]*TVs?|\bLCD`,
	domain.DomainDisplay:    `\bdisplays?\b|디스플레이|\bmonitors?\b|모니터|(?-i:\bPCs?\b)|\bpanels?\b|패널`,
	domain.DomainRobotVacuum: `robot(?:ic)?\s*vacuums?|vacuum\s*robots?|로봇\s*청소기|청소\s*로봇|roborock|로보락|` +
		`ecovacs|에코백스|dreame|드리미|roomba|irobot`,
	domain.DomainRobot: `\brobots?\b|\brobotics\b|\bhumanoids?\b|휴머노이드|\bcobots?\b|협동\s*로봇|로봇|로보틱스`,
	domain.DomainSemiconductor: `semiconductors?|\bchips?\b|chipmakers?|foundr(?:y|ies)|파운드리|반도체|\bmemory\b|메모리|` +
		`\bHBM\d*E?\b|\bDRAM\b|D램|디램|\bNAND\b|낸드|\bwafers?\b|웨이퍼|하이닉스|hynix|nvidia|엔비디아|` +
		`(?-i:\bAMD\b)|\bintel\b|인텔|\bTSMC\b|\bmicron\b|마이크론|\bfabs?\b|패키징|칩(?:$|[^\p{Hangul}])`,
	domain.DomainElectricVehicle: `electric\s*vehicles?|전기\s*자동차|전기차|\bEVs?\b|\bBEVs?\b|\bPHEVs?\b`,
}

// conservativeDomains only enter the candidate set when their token sits near
// a market word.
var conservativeDomains = map[domain.MarketDomain]bool{
	domain.DomainSmartphone: true,
	domain.DomainTV:         true,
	domain.DomainOLED:       true,
	domain.DomainLCDTV:      true,
	domain.DomainDisplay:    true,
}

// signalAugmented domains are injected into the candidate set when the text
// carries a market signal and their raw token matches.
var signalAugmented = []domain.MarketDomain{
	domain.DomainSmartphone,
	domain.DomainSemiconductor,
	domain.DomainElectricVehicle,
	domain.DomainRobot,
	domain.DomainRobotVacuum,
}

// Market-signal lexicon: vocabulary that marks a story as market coverage.
var marketSignalPattern = regexp.MustCompile(`(?i)` +
	`\bmarkets?\b|시장|\bshares?\b|점유율|\bshipments?\b|\bshipped\b|출하|sales\s+volume|판매량|\bsales\b|판매|` +
	`\bcumulative\b|누적|(?-i:\bASP\b)|average\s+selling\s+prices?|평균\s*판매\s*(?:가격|단가)|\brevenues?\b|매출|` +
	`growth\s+rates?|성장률|\bCAGR\b|year[\s-]+(?:over|on)[\s-]+year|\bYoY\b|전년\s*(?:대비|동기)|` +
	`quarter[\s-]+(?:over|on)[\s-]+quarter|\bQoQ\b|(?:previous|prior)\s+quarter|전\s*분기|` +
	`half[\s-]+year|(?:first|second)\s+half|\bH[12]\b|상반기|하반기|반기`)

var phoneBrandPattern = regexp.MustCompile(`(?i)` +
	`\biphones?\b|\bgalaxy\b|\bsamsung\b|\bapple\b|\bpixel\b|xiaomi|\boppo\b|\bvivo\b|huawei|\bhonor\b|motorola|` +
	`아이폰|갤럭시|삼성|애플|샤오미|화웨이|오포|비보`)

var salesVerbPattern = regexp.MustCompile(`(?i)` +
	`\bsold\b|\bsells?\b|\bselling\b|\bsales\b|\bshipments?\b|\bshipped\b|\bshares?\b|\brevenues?\b|\bunits\b|` +
	`판매|팔려|팔린|출하|점유율|매출`)

var aiSmartphonePattern = regexp.MustCompile(`(?i)` +
	`\b(?:AI|인공지능)[\s-]*(?:smart\s*phones?|\bphones?\b|스마트폰|폰)`)

// displayRefinePattern flags explicit Display matches that should be narrowed
// to the TV family.
var displayRefinePattern = regexp.MustCompile(`(?i)TV|티비|OLED|올레드|LCD`)

// forceDisplayPattern drives the optional force-Display pre-filter.
var forceDisplayPattern = regexp.MustCompile(`(?i)\bTVs?\b|티비|OLED|올레드|LCD|\bmonitors?\b|모니터|\bdisplays?\b|디스플레이`)

// explicitPattern is one compiled "<geography> <domain> market" template.
type explicitPattern struct {
	geo    domain.Geography
	domain domain.MarketDomain
	re     *regexp.Regexp
}

// registry is the process-wide, read-only set of gap-dependent patterns.
type registry struct {
	geography     map[domain.Geography]*regexp.Regexp
	geoToken      map[domain.Geography]*regexp.Regexp
	globalToken   *regexp.Regexp
	domainToken   map[domain.MarketDomain]*regexp.Regexp
	domainCollect map[domain.MarketDomain]*regexp.Regexp
	explicit      []explicitPattern
}

func compile(expr string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(`(?i)` + expr)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, err)
	}
	return re, nil
}

func buildRegistry(g Gaps) (*registry, error) {
	if err := g.validate(); err != nil {
		return nil, err
	}

	r := &registry{
		geography:     make(map[domain.Geography]*regexp.Regexp, len(domain.Geographies)),
		geoToken:      make(map[domain.Geography]*regexp.Regexp, len(domain.Geographies)),
		domainToken:   make(map[domain.MarketDomain]*regexp.Regexp, len(domain.DomainPriority)),
		domainCollect: make(map[domain.MarketDomain]*regexp.Regexp, len(domain.DomainPriority)),
	}

	var err error
	if r.globalToken, err = compile(globalToken); err != nil {
		return nil, err
	}

	for _, geo := range domain.Geographies {
		tok, ok := geographyTokens[geo]
		if !ok {
			return nil, fmt.Errorf("no tokens for geography %s", geo)
		}
		if r.geoToken[geo], err = compile(tok); err != nil {
			return nil, err
		}
		expr := fmt.Sprintf(`(?:%s).{0,%d}%s|(?:%s)`, tok, g.GeoMarket, marketWord, tok)
		if r.geography[geo], err = compile(expr); err != nil {
			return nil, err
		}
	}

	for _, d := range domain.DomainPriority {
		tok, ok := domainTokens[d]
		if !ok {
			return nil, fmt.Errorf("no tokens for domain %s", d)
		}
		if r.domainToken[d], err = compile(tok); err != nil {
			return nil, err
		}
		collect := tok
		if conservativeDomains[d] {
			collect = fmt.Sprintf(`(?:%s).{0,%d}%s|%s.{0,%d}(?:%s)`,
				tok, g.DomainMarket, marketWord, marketWord, g.DomainMarket, tok)
		}
		if r.domainCollect[d], err = compile(collect); err != nil {
			return nil, err
		}
	}

	// Explicit templates are tried per geography in DomainPriority order; the
	// first match wins.
	for _, geo := range domain.Geographies {
		gtok := geographyTokens[geo]
		for _, d := range domain.DomainPriority {
			mtok := domainTokens[d]
			lead := fmt.Sprintf(`(?:%s).{0,%d}(?:%s).{0,%d}%s`,
				gtok, g.ExplicitLead, mtok, g.ExplicitTrail, marketWord)
			trail := fmt.Sprintf(`(?:%s).{0,%d}%s.{0,%d}(?:%s)`,
				mtok, g.ExplicitTrail, marketWord, g.ExplicitLead, gtok)
			for _, expr := range []string{lead, trail} {
				re, compileErr := compile(expr)
				if compileErr != nil {
					return nil, compileErr
				}
				r.explicit = append(r.explicit, explicitPattern{geo: geo, domain: d, re: re})
			}
		}
	}

	return r, nil
}

// IsMarketSignal reports whether text contains market-metric vocabulary.
func IsMarketSignal(text string) bool {
	return marketSignalPattern.MatchString(text)
}

func hasBrandSales(text string) bool {
	return phoneBrandPattern.MatchString(text) && salesVerbPattern.MatchString(text)
}
