package classifier

import "github.com/jonesrussell/north-cloud/market-classifier/internal/domain"

// precedence domains are narrow enough to accept without a market signal.
var precedence = []struct {
	domain domain.MarketDomain
	reason domain.ReasonCode
}{
	{domain.DomainFoldableSmartphone, domain.ReasonFoldablePriority},
	{domain.DomainSmartphoneAP, domain.ReasonSmartphoneAPPriority},
	{domain.DomainRobotVacuum, domain.ReasonRobotVacuumPriority},
	{domain.DomainSemiconductor, domain.ReasonSemiconductorPriority},
}

// signalGated domains are accepted only alongside market vocabulary.
var signalGated = []struct {
	domain domain.MarketDomain
	reason domain.ReasonCode
}{
	{domain.DomainSecurity, domain.ReasonSecurityWithSignal},
	{domain.DomainXR, domain.ReasonXRWithSignal},
	{domain.DomainSmartWatch, domain.ReasonSmartWatchWithSignal},
	{domain.DomainRobot, domain.ReasonRobotWithSignal},
	{domain.DomainElectricVehicle, domain.ReasonElectricVehicleWithSignal},
}

// resolveDomain arbitrates the candidate set down to one domain. Rules are
// applied in order and the first that fires wins.
func resolveDomain(text string, s candidateSet) (domain.MarketDomain, bool, domain.ReasonCode) {
	if s.empty() {
		if hasBrandSales(text) {
			return domain.DomainSmartphone, true, domain.ReasonBrandSalesFallback
		}
		return 0, false, domain.ReasonNoDomainMatch
	}

	// AI-branded phones are smartphone stories.
	if (s.contains(domain.DomainAI) && s.contains(domain.DomainSmartphone)) || aiSmartphonePattern.MatchString(text) {
		if s.contains(domain.DomainFoldableSmartphone) {
			return domain.DomainFoldableSmartphone, true, domain.ReasonAISmartphoneToFoldable
		}
		return domain.DomainSmartphone, true, domain.ReasonAISmartphoneToSmartphone
	}

	for _, p := range precedence {
		if s.contains(p.domain) {
			return p.domain, true, p.reason
		}
	}

	if s.contains(domain.DomainOLED) || s.contains(domain.DomainLCDTV) {
		return domain.DomainTV, true, domain.ReasonOLEDLCDToTV
	}
	if s.contains(domain.DomainTV) {
		return domain.DomainTV, true, domain.ReasonDomainTV
	}

	signal := IsMarketSignal(text)
	if !signal {
		s.drop(domain.DomainDisplay)
		s.drop(domain.DomainAI)
	}

	if signal && s.contains(domain.DomainSmartphone) {
		return domain.DomainSmartphone, true, domain.ReasonSmartphoneWithSignal
	}

	for _, g := range signalGated {
		if !s.contains(g.domain) {
			continue
		}
		if signal {
			return g.domain, true, g.reason
		}
		s.drop(g.domain)
	}

	for _, d := range s.list() {
		if d != domain.DomainSmartphone {
			return d, true, domain.ReasonDomainFallbackPriority
		}
		// Smartphone with a signal returned above; only the brand fallback
		// can still rescue it.
		if hasBrandSales(text) {
			return domain.DomainSmartphone, true, domain.ReasonSmartphoneBrandSalesFallback
		}
		return 0, false, domain.ReasonSmartphoneNoSignal
	}

	return 0, false, domain.ReasonDomainEmptyAfterFilter
}
