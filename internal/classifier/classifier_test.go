package classifier_test

import (
	"strings"
	"sync"
	"testing"

	"github.com/jonesrussell/north-cloud/market-classifier/internal/classifier"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/domain"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/logger"
)

func newClassifier(t *testing.T, cfg classifier.Config) *classifier.Classifier {
	t.Helper()
	c, err := classifier.New(cfg, logger.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestClassify(t *testing.T) {
	t.Parallel()

	c := newClassifier(t, classifier.Config{})

	tests := []struct {
		name       string
		text       string
		hint       string
		wantCat    string
		wantReason domain.ReasonCode
	}{
		{
			name:       "explicit phrase wins over other domains",
			text:       "Analysts expect the Korea smartphone market to shrink as TSMC raises chip prices",
			wantCat:    "Korea Smartphone market",
			wantReason: domain.ReasonExplicitGeoMarket,
		},
		{
			name:       "explicit phrase in trailing order with two countries",
			text:       "The smartphone market grew while Korea lagged behind China",
			wantCat:    "Global Smartphone market",
			wantReason: domain.ReasonExplicitGeoMarket,
		},
		{
			name:       "multi country semiconductor story",
			text:       "Korea and China expand DRAM production lines",
			wantCat:    "Global Semiconductor market",
			wantReason: domain.ReasonSemiconductorPriority,
		},
		{
			name:       "foldable outranks smartwatch without signal",
			text:       "This foldable AI smartwatch was unveiled today",
			wantCat:    "Global Foldable Smartphone market",
			wantReason: domain.ReasonFoldablePriority,
		},
		{
			name:       "smartwatch without signal is dropped",
			text:       "The new smartwatch tracks sleep and heart rate",
			wantCat:    "Unclassified",
			wantReason: domain.ReasonDomainEmptyAfterFilter,
		},
		{
			name:       "smartwatch with signal",
			text:       "Smartwatch shipments rose 12% year-over-year",
			wantCat:    "Global SmartWatch market",
			wantReason: domain.ReasonSmartWatchWithSignal,
		},
		{
			name:       "oled monitor without market vocabulary",
			text:       "A new OLED monitor was reviewed",
			wantCat:    "Unclassified",
			wantReason: domain.ReasonNoDomainMatch,
		},
		{
			name:       "oled tv collapses to tv",
			text:       "OLED TV market share grew 10%",
			wantCat:    "Global TV market",
			wantReason: domain.ReasonOLEDLCDToTV,
		},
		{
			name:       "display with signal",
			text:       "PC monitor market revenue fell",
			wantCat:    "Global Display market",
			wantReason: domain.ReasonDomainFallbackPriority,
		},
		{
			name:       "ai smartphone is a smartphone story",
			text:       "Samsung's new AI smartphone sold 2 million units",
			wantCat:    "Global Smartphone market",
			wantReason: domain.ReasonAISmartphoneToSmartphone,
		},
		{
			name:       "ai phone with foldable",
			text:       "Samsung unveils AI phone lineup with new foldable models",
			wantCat:    "Global Foldable Smartphone market",
			wantReason: domain.ReasonAISmartphoneToFoldable,
		},
		{
			name:       "brand and sales fallback",
			text:       "iPhone sales jumped 20% this quarter",
			wantCat:    "Global Smartphone market",
			wantReason: domain.ReasonBrandSalesToSmartphone,
		},
		{
			name:       "smartphone injected by market signal",
			text:       "Smartphone shipments rose 5% year-over-year",
			wantCat:    "Global Smartphone market",
			wantReason: domain.ReasonSmartphoneWithSignal,
		},
		{
			name:       "smartphone without signal is not injected",
			text:       "New smartphone colors unveiled",
			wantCat:    "Unclassified",
			wantReason: domain.ReasonNoDomainMatch,
		},
		{
			name:       "robot vacuum precedence with geography",
			text:       "Roborock leads robot vacuum sales in Europe",
			wantCat:    "Europe Robot Vacuum market",
			wantReason: domain.ReasonRobotVacuumPriority,
		},
		{
			name:       "electric vehicle with signal",
			text:       "US electric vehicle sales rose 8% YoY",
			wantCat:    "US Electric Vehicle market",
			wantReason: domain.ReasonElectricVehicleWithSignal,
		},
		{
			name:       "security incident is not a market story",
			text:       "Hackers exploited a security flaw in routers",
			wantCat:    "Unclassified",
			wantReason: domain.ReasonDomainEmptyAfterFilter,
		},
		{
			name:       "display source hint",
			text:       "Quarterly briefing from the analyst team",
			hint:       "DSCC",
			wantCat:    "Global Display market",
			wantReason: domain.ReasonSourceHintDisplay,
		},
		{
			name:       "non display source hint stays unclassified",
			text:       "Quarterly briefing from the analyst team",
			hint:       "CP",
			wantCat:    "Unclassified",
			wantReason: domain.ReasonNoDomainMatch,
		},
		{
			name:       "explicit display refined to oled",
			text:       "Japan display market: OLED panels gain",
			wantCat:    "Japan OLED market",
			wantReason: domain.ReasonExplicitDisplayRefine,
		},
		{
			name:       "korean explicit phrase",
			text:       "국내 스마트폰 시장 점유율 1위",
			wantCat:    "Korea Smartphone market",
			wantReason: domain.ReasonExplicitGeoMarket,
		},
		{
			name:       "indonesia is not india",
			text:       "인도네시아 반도체 시장 성장",
			wantCat:    "Global Semiconductor market",
			wantReason: domain.ReasonSemiconductorPriority,
		},
		{
			name:       "empty text",
			text:       "",
			wantCat:    "Unclassified",
			wantReason: domain.ReasonNoDomainMatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := c.Classify(domain.ClassificationInput{Text: tt.text, SourceHint: tt.hint})
			if got.Category.String() != tt.wantCat {
				t.Errorf("category: got %q, want %q", got.Category.String(), tt.wantCat)
			}
			if got.Reason != tt.wantReason {
				t.Errorf("reason: got %s, want %s", got.Reason, tt.wantReason)
			}
		})
	}
}

func TestClassify_SignalInjection(t *testing.T) {
	t.Parallel()

	c := newClassifier(t, classifier.Config{})
	text := "Smartphone shipments rose 5% year-over-year"

	if got := c.CollectCandidates(text); len(got) != 0 {
		t.Fatalf("CollectCandidates: got %v, want none before signal injection", got)
	}
	if !classifier.IsMarketSignal(text) {
		t.Fatalf("IsMarketSignal(%q) = false", text)
	}
	got := c.Classify(domain.ClassificationInput{Text: text})
	if got.Reason != domain.ReasonSmartphoneWithSignal {
		t.Errorf("reason: got %s, want %s", got.Reason, domain.ReasonSmartphoneWithSignal)
	}
}

func TestClassify_Totality(t *testing.T) {
	t.Parallel()

	c := newClassifier(t, classifier.Config{})

	inputs := []string{
		"",
		"   \n\t ",
		"lorem ipsum dolor sit amet",
		strings.Repeat("market share TV OLED 반도체 시장 ", 500),
		"US EU AI AR VR MR XR AP SoC PC EV",
		"\u00a0\u200b\ufeff",
		"ＴＶ 시장 점유율",
	}

	for _, in := range inputs {
		for _, hint := range []string{"", "CP", "DSCC"} {
			got := c.Classify(domain.ClassificationInput{Text: in, SourceHint: hint})
			if !domain.IsWhitelisted(got.Category.String(), domain.LocaleEnglish) {
				t.Errorf("Classify(%.20q): non-whitelisted %q", in, got.Category.String())
			}
			if !got.Reason.Valid() {
				t.Errorf("Classify(%.20q): unknown reason %q", in, got.Reason)
			}
		}
	}
}

func TestClassify_Idempotent(t *testing.T) {
	t.Parallel()

	c := newClassifier(t, classifier.Config{})
	in := domain.ClassificationInput{Text: "China foldable smartphone shipments doubled", SourceHint: "IDC"}

	first := c.Classify(in)
	for range 5 {
		if again := c.Classify(in); again != first {
			t.Fatalf("Classify not idempotent: %+v then %+v", first, again)
		}
	}
}

func TestClassify_Concurrent(t *testing.T) {
	t.Parallel()

	c := newClassifier(t, classifier.Config{})
	want := c.Classify(domain.ClassificationInput{Text: "OLED TV market share grew 10%"})

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				if got := c.Classify(domain.ClassificationInput{Text: "OLED TV market share grew 10%"}); got != want {
					t.Errorf("concurrent result drifted: %+v", got)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestClassify_ForceDisplay(t *testing.T) {
	t.Parallel()

	c := newClassifier(t, classifier.Config{ForceDisplay: true})

	got := c.Classify(domain.ClassificationInput{Text: "Korea OLED monitor launch event"})
	if got.Category.String() != "Korea Display market" {
		t.Errorf("category: got %q, want %q", got.Category.String(), "Korea Display market")
	}
	if got.Reason != domain.ReasonForceDisplay {
		t.Errorf("reason: got %s, want %s", got.Reason, domain.ReasonForceDisplay)
	}

	// Without display tokens the pre-filter must not fire.
	got = c.Classify(domain.ClassificationInput{Text: "Korea and China expand DRAM production lines"})
	if got.Reason != domain.ReasonSemiconductorPriority {
		t.Errorf("reason: got %s, want %s", got.Reason, domain.ReasonSemiconductorPriority)
	}
}

func TestClassifyText_KoreanLocale(t *testing.T) {
	t.Parallel()

	c := newClassifier(t, classifier.Config{Locale: domain.LocaleKorean})

	cat, reason := c.ClassifyText("국내 스마트폰 시장 점유율 1위", "CP")
	if cat != "한국 스마트폰 시장" {
		t.Errorf("category: got %q, want %q", cat, "한국 스마트폰 시장")
	}
	if reason != domain.ReasonExplicitGeoMarket {
		t.Errorf("reason: got %s", reason)
	}

	cat, _ = c.ClassifyText("", "CP")
	if cat != domain.UnclassifiedKorean {
		t.Errorf("empty text: got %q, want %q", cat, domain.UnclassifiedKorean)
	}
}

func TestResolveDomain(t *testing.T) {
	t.Parallel()

	c := newClassifier(t, classifier.Config{})

	tests := []struct {
		name       string
		text       string
		candidates []domain.MarketDomain
		wantOK     bool
		want       domain.MarketDomain
		wantReason domain.ReasonCode
	}{
		{"smartphone without signal", "new smartphone colors", []domain.MarketDomain{domain.DomainSmartphone},
			false, 0, domain.ReasonSmartphoneNoSignal},
		{"smartphone rescued by brand and sales", "Galaxy sold out in hours", []domain.MarketDomain{domain.DomainSmartphone},
			true, domain.DomainSmartphone, domain.ReasonSmartphoneBrandSalesFallback},
		{"display dropped without signal", "new display tech", []domain.MarketDomain{domain.DomainDisplay},
			false, 0, domain.ReasonDomainEmptyAfterFilter},
		{"ai kept with signal", "AI market revenue doubled", []domain.MarketDomain{domain.DomainAI},
			true, domain.DomainAI, domain.ReasonDomainFallbackPriority},
		{"display before ai in fallback", "display and AI revenue", []domain.MarketDomain{domain.DomainAI, domain.DomainDisplay},
			true, domain.DomainDisplay, domain.ReasonDomainFallbackPriority},
		{"ai with smartphone", "AI features", []domain.MarketDomain{domain.DomainAI, domain.DomainSmartphone},
			true, domain.DomainSmartphone, domain.ReasonAISmartphoneToSmartphone},
		{"tv", "TV", []domain.MarketDomain{domain.DomainTV, domain.DomainDisplay},
			true, domain.DomainTV, domain.ReasonDomainTV},
		{"lcd collapses", "LCD", []domain.MarketDomain{domain.DomainLCDTV},
			true, domain.DomainTV, domain.ReasonOLEDLCDToTV},
		{"smartphone ap before semiconductor", "SoC", []domain.MarketDomain{domain.DomainSemiconductor, domain.DomainSmartphoneAP},
			true, domain.DomainSmartphoneAP, domain.ReasonSmartphoneAPPriority},
		{"smartphone with signal", "smartphone market", []domain.MarketDomain{domain.DomainSmartphone, domain.DomainSecurity},
			true, domain.DomainSmartphone, domain.ReasonSmartphoneWithSignal},
		{"security with signal", "security market", []domain.MarketDomain{domain.DomainSecurity, domain.DomainRobot},
			true, domain.DomainSecurity, domain.ReasonSecurityWithSignal},
		{"xr with signal", "headset shipments", []domain.MarketDomain{domain.DomainXR},
			true, domain.DomainXR, domain.ReasonXRWithSignal},
		{"robot with signal", "robot revenue", []domain.MarketDomain{domain.DomainRobot},
			true, domain.DomainRobot, domain.ReasonRobotWithSignal},
		{"no candidates", "weather", nil,
			false, 0, domain.ReasonNoDomainMatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok, reason := c.ResolveDomain(tt.text, tt.candidates)
			if ok != tt.wantOK || (ok && got != tt.want) {
				t.Errorf("domain: got (%s, %v), want (%s, %v)", got, ok, tt.want, tt.wantOK)
			}
			if reason != tt.wantReason {
				t.Errorf("reason: got %s, want %s", reason, tt.wantReason)
			}
		})
	}
}

func TestResolveGeography(t *testing.T) {
	t.Parallel()

	c := newClassifier(t, classifier.Config{})

	tests := []struct {
		text   string
		want   domain.Geography
		wantOK bool
	}{
		{"Korea and China expand DRAM production", domain.GeoGlobal, true},
		{"Global demand hits Japan", domain.GeoGlobal, true},
		{"Japanese makers lead", domain.GeoJapan, true},
		{"U.S. shipments", domain.GeoUS, true},
		{"let us know", domain.GeoGlobal, false},
		{"인도 스마트폰", domain.GeoIndia, true},
		{"인도네시아 반도체 공장", domain.GeoGlobal, false},
		{"인도네시아와 인도 반도체 공장", domain.GeoIndia, true},
		{"worldwide shipments", domain.GeoGlobal, true},
		{"no region here", domain.GeoGlobal, false},
	}

	for _, tt := range tests {
		got, ok := c.ResolveGeography(tt.text)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ResolveGeography(%q): got (%s, %v), want (%s, %v)", tt.text, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestCollectCandidates_PriorityOrder(t *testing.T) {
	t.Parallel()

	c := newClassifier(t, classifier.Config{})

	got := c.CollectCandidates("Robot vacuum and humanoid robot makers buy more HBM; LCD TV market slows")
	want := []domain.MarketDomain{
		domain.DomainLCDTV, domain.DomainTV, domain.DomainRobotVacuum, domain.DomainRobot, domain.DomainSemiconductor,
	}
	if len(got) != len(want) {
		t.Fatalf("CollectCandidates: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("CollectCandidates[%d]: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestDetectExplicit(t *testing.T) {
	t.Parallel()

	c := newClassifier(t, classifier.Config{})

	geo, d, ok := c.DetectExplicit("China's EV market is slowing")
	if !ok || geo != domain.GeoChina || d != domain.DomainElectricVehicle {
		t.Errorf("DetectExplicit: got (%s, %s, %v)", geo, d, ok)
	}

	// Templates are tried in domain priority order, so the narrower domain wins
	// when one phrase names two.
	geo, d, ok = c.DetectExplicit("Korea smartphone AP market")
	if !ok || geo != domain.GeoKorea || d != domain.DomainSmartphoneAP {
		t.Errorf("DetectExplicit: got (%s, %s, %v), want (Korea, Smartphone AP)", geo, d, ok)
	}

	if _, _, ok = c.DetectExplicit("Korea smartphone exports"); ok {
		t.Error("DetectExplicit: matched without a market word")
	}
}

func TestIsMarketSignal(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"market", "Shipments fell", "CAGR of 5%", "quarter-over-quarter", "상반기 매출", "ASP rose"} {
		if !classifier.IsMarketSignal(s) {
			t.Errorf("IsMarketSignal(%q): got false", s)
		}
	}
	for _, s := range []string{"unveiled today", "asp", "a new feature"} {
		if classifier.IsMarketSignal(s) {
			t.Errorf("IsMarketSignal(%q): got true", s)
		}
	}
}

func TestSimulateBatch(t *testing.T) {
	t.Parallel()

	c := newClassifier(t, classifier.Config{})
	long := strings.Repeat("x", 200) + " OLED TV market share grew"

	rows := c.SimulateBatch([]string{"iPhone sales jumped 20% this quarter", long}, "CP")
	if len(rows) != 2 {
		t.Fatalf("SimulateBatch: got %d rows, want 2", len(rows))
	}
	if rows[0].Category != "Global Smartphone market" || rows[0].Reason != domain.ReasonBrandSalesFallback {
		t.Errorf("row 0: got %+v", rows[0])
	}
	if !strings.HasSuffix(rows[1].Preview, "...") || len([]rune(rows[1].Preview)) != 83 {
		t.Errorf("row 1 preview not truncated: %q", rows[1].Preview)
	}
}

func TestNew_RejectsBadGaps(t *testing.T) {
	t.Parallel()

	gaps := classifier.DefaultGaps()
	gaps.ExplicitLead = 5000
	if _, err := classifier.New(classifier.Config{Gaps: gaps}, logger.NewNop()); err == nil {
		t.Error("New: expected error for out-of-range gap")
	}
}
