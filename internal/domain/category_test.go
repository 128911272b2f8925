package domain_test

import (
	"testing"

	"github.com/jonesrussell/north-cloud/market-classifier/internal/domain"
)

func TestCompose(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		geo       domain.Geography
		hasGeo    bool
		dom       domain.MarketDomain
		hasDomain bool
		want      string
	}{
		{"korea smartphone", domain.GeoKorea, true, domain.DomainSmartphone, true, "Korea Smartphone market"},
		{"missing geography defaults to global", 0, false, domain.DomainTV, true, "Global TV market"},
		{"out of enum geography defaults to global", domain.Geography(99), true, domain.DomainOLED, true, "Global OLED market"},
		{"missing domain", domain.GeoChina, true, 0, false, "Unclassified"},
		{"out of enum domain", domain.GeoChina, true, domain.MarketDomain(42), true, "Unclassified"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := domain.Compose(tt.geo, tt.hasGeo, tt.dom, tt.hasDomain)
			if got.String() != tt.want {
				t.Errorf("Compose: got %q, want %q", got.String(), tt.want)
			}
			if !domain.IsWhitelisted(got.String(), domain.LocaleEnglish) {
				t.Errorf("Compose returned non-whitelisted %q", got.String())
			}
		})
	}
}

func TestWhitelist_CrossProduct(t *testing.T) {
	t.Parallel()

	for _, loc := range []domain.Locale{domain.LocaleEnglish, domain.LocaleKorean} {
		list := domain.Whitelist(loc)
		want := len(domain.Geographies)*len(domain.DomainPriority) + 1
		if len(list) != want {
			t.Errorf("Whitelist(%s): got %d entries, want %d", loc, len(list), want)
		}
		seen := make(map[string]bool, len(list))
		for _, s := range list {
			if seen[s] {
				t.Errorf("Whitelist(%s): duplicate %q", loc, s)
			}
			seen[s] = true
			if !domain.IsWhitelisted(s, loc) {
				t.Errorf("IsWhitelisted(%q, %s): got false", s, loc)
			}
		}
	}
}

func TestCategory_KoreanLabel(t *testing.T) {
	t.Parallel()

	c := domain.Compose(domain.GeoGlobal, true, domain.DomainRobotVacuum, true)
	if got := c.Label(domain.LocaleKorean); got != "전세계 로봇청소기 시장" {
		t.Errorf("Label(ko): got %q", got)
	}
	if got := domain.Unclassified.Label(domain.LocaleKorean); got != "미분류" {
		t.Errorf("Unclassified Label(ko): got %q", got)
	}
	if domain.IsWhitelisted("Korea Banana market", domain.LocaleEnglish) {
		t.Error("IsWhitelisted accepted an ad-hoc category")
	}
}

func TestReasonCodes_Unique(t *testing.T) {
	t.Parallel()

	seen := make(map[domain.ReasonCode]bool)
	for _, r := range domain.ReasonCodes {
		if seen[r] {
			t.Errorf("duplicate reason code %s", r)
		}
		seen[r] = true
		if !r.Valid() {
			t.Errorf("%s: Valid() = false", r)
		}
	}
	if domain.ReasonCode("R_MADE_UP").Valid() {
		t.Error("Valid accepted an unknown code")
	}
}
