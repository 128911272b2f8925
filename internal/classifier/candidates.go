package classifier

import "github.com/jonesrussell/north-cloud/market-classifier/internal/domain"

// candidateSet is the ordered set of matched domains. Membership is tracked
// in a fixed-size array indexed by domain; iteration always follows
// domain.DomainPriority.
type candidateSet struct {
	has [domain.NumDomains]bool
}

func (s *candidateSet) add(d domain.MarketDomain) {
	s.has[d] = true
}

func (s *candidateSet) drop(d domain.MarketDomain) {
	s.has[d] = false
}

func (s candidateSet) contains(d domain.MarketDomain) bool {
	return d.Valid() && s.has[d]
}

func (s candidateSet) empty() bool {
	for _, ok := range s.has {
		if ok {
			return false
		}
	}
	return true
}

// list returns members in priority order.
func (s candidateSet) list() []domain.MarketDomain {
	out := make([]domain.MarketDomain, 0, len(domain.DomainPriority))
	for _, d := range domain.DomainPriority {
		if s.has[d] {
			out = append(out, d)
		}
	}
	return out
}

func newCandidateSet(domains []domain.MarketDomain) candidateSet {
	var s candidateSet
	for _, d := range domains {
		if d.Valid() {
			s.add(d)
		}
	}
	return s
}

// collectCandidates tests every domain's collector pattern in priority order.
func (r *registry) collectCandidates(text string) candidateSet {
	var s candidateSet
	for _, d := range domain.DomainPriority {
		if r.domainCollect[d].MatchString(text) {
			s.add(d)
		}
	}
	return s
}

// augment injects the signal-augmented domains whose raw token matches. The
// caller has already established that the text carries a market signal.
func (r *registry) augment(s *candidateSet, text string) {
	for _, d := range signalAugmented {
		if !s.contains(d) && r.domainToken[d].MatchString(text) {
			s.add(d)
		}
	}
}
