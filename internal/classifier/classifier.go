// Package classifier assigns a geography and market-domain category, plus an
// audit reason code, to news text. The engine is a pure function over a
// registry of patterns compiled once by New; a Classifier is safe for
// concurrent use.
package classifier

import (
	"fmt"
	"time"

	"github.com/jonesrussell/north-cloud/market-classifier/internal/domain"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/logger"
)

// Default input limits.
const (
	DefaultMaxTextLength = 4000
	simulatePreviewRunes = 80
)

// DefaultDisplaySources are the display-specialty feeds whose rows fall back
// to Display when nothing else matched.
var DefaultDisplaySources = []string{"OmdiaTV", "DSCC"}

// Config controls the engine. The zero value is usable: defaults are applied
// by New.
type Config struct {
	// ForceDisplay turns on the pre-filter that maps any TV, OLED, LCD,
	// monitor or display mention straight to Display.
	ForceDisplay   bool
	DisplaySources []string
	MaxTextLength  int
	Gaps           Gaps
	Locale         domain.Locale
}

// Observer receives one callback per classification. The telemetry package
// provides the Prometheus-backed implementation.
type Observer interface {
	ObserveClassification(reason domain.ReasonCode, elapsed time.Duration)
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithObserver attaches an Observer.
func WithObserver(o Observer) Option {
	return func(c *Classifier) {
		c.observer = o
	}
}

// Classifier is the market category engine.
type Classifier struct {
	cfg            Config
	reg            *registry
	displaySources map[string]struct{}
	logger         logger.Logger
	observer       Observer
}

// New compiles the pattern registry. A registry that fails to compile is a
// startup error; once built, classification cannot fail.
func New(cfg Config, log logger.Logger, opts ...Option) (*Classifier, error) {
	if cfg.MaxTextLength <= 0 {
		cfg.MaxTextLength = DefaultMaxTextLength
	}
	if cfg.Gaps == (Gaps{}) {
		cfg.Gaps = DefaultGaps()
	}
	if cfg.DisplaySources == nil {
		cfg.DisplaySources = DefaultDisplaySources
	}
	if cfg.Locale == "" {
		cfg.Locale = domain.LocaleEnglish
	}
	if log == nil {
		log = logger.NewNop()
	}

	reg, err := buildRegistry(cfg.Gaps)
	if err != nil {
		return nil, fmt.Errorf("build pattern registry: %w", err)
	}

	c := &Classifier{
		cfg:            cfg,
		reg:            reg,
		displaySources: make(map[string]struct{}, len(cfg.DisplaySources)),
		logger:         log,
	}
	for _, s := range cfg.DisplaySources {
		c.displaySources[s] = struct{}{}
	}
	for _, opt := range opts {
		opt(c)
	}

	c.logger.Info("Market classifier ready",
		logger.String("pattern_version", PatternVersion),
		logger.Bool("force_display", cfg.ForceDisplay),
		logger.Int("explicit_patterns", len(reg.explicit)),
		logger.String("locale", string(cfg.Locale)),
	)

	return c, nil
}

// Locale returns the label locale used by ClassifyText and SimulateBatch.
func (c *Classifier) Locale() domain.Locale {
	return c.cfg.Locale
}

// Classify runs the full pipeline on one input. It always returns a
// whitelisted category (possibly Unclassified) and a reason code.
func (c *Classifier) Classify(in domain.ClassificationInput) domain.ClassificationResult {
	start := time.Now()
	text := matchText(in.Text, c.cfg.MaxTextLength)

	result := c.classify(text, in.SourceHint)

	if c.observer != nil {
		c.observer.ObserveClassification(result.Reason, time.Since(start))
	}
	c.logger.Debug("Classified text",
		logger.String("category", result.Category.String()),
		logger.String("reason", string(result.Reason)),
		logger.String("source_hint", in.SourceHint),
		logger.Int("text_runes", len([]rune(text))),
	)

	return result
}

func (c *Classifier) classify(text, sourceHint string) domain.ClassificationResult {
	if c.cfg.ForceDisplay && forceDisplayPattern.MatchString(text) {
		geo, ok := c.reg.resolveGeography(text)
		return c.result(geo, ok, domain.DomainDisplay, true, domain.ReasonForceDisplay)
	}

	if geo, d, ok := c.reg.detectExplicit(text); ok {
		if d == domain.DomainDisplay && displayRefinePattern.MatchString(text) {
			if list := c.reg.collectCandidates(text).list(); len(list) > 0 {
				return c.result(geo, true, list[0], true, domain.ReasonExplicitDisplayRefine)
			}
		}
		return c.result(geo, true, d, true, domain.ReasonExplicitGeoMarket)
	}

	geo, geoOK := c.reg.resolveGeography(text)

	candidates := c.reg.collectCandidates(text)
	if IsMarketSignal(text) {
		c.reg.augment(&candidates, text)
	}

	d, domainOK, reason := resolveDomain(text, candidates)

	if !domainOK {
		if _, ok := c.displaySources[sourceHint]; ok {
			return c.result(geo, geoOK, domain.DomainDisplay, true, domain.ReasonSourceHintDisplay)
		}
	}

	return c.result(geo, geoOK, d, domainOK, reason)
}

func (c *Classifier) result(
	geo domain.Geography, geoOK bool, d domain.MarketDomain, domainOK bool, reason domain.ReasonCode,
) domain.ClassificationResult {
	return domain.ClassificationResult{
		Category: domain.Compose(geo, geoOK, d, domainOK),
		Reason:   reason,
	}
}

// ClassifyText is the string-in, string-out form used by spreadsheet fillers:
// the category is rendered in the configured locale.
func (c *Classifier) ClassifyText(text, sourceHint string) (string, domain.ReasonCode) {
	r := c.Classify(domain.ClassificationInput{Text: text, SourceHint: sourceHint})
	return r.Category.Label(c.cfg.Locale), r.Reason
}

// SimulateBatch classifies each text with the same source hint and returns a
// short preview next to each verdict. It is a diagnostic harness for rule
// validation.
func (c *Classifier) SimulateBatch(texts []string, sourceHint string) []domain.SimulationRow {
	rows := make([]domain.SimulationRow, 0, len(texts))
	for _, t := range texts {
		category, reason := c.ClassifyText(t, sourceHint)
		rows = append(rows, domain.SimulationRow{
			Preview:  preview(normalizeText(t, c.cfg.MaxTextLength), simulatePreviewRunes),
			Category: category,
			Reason:   reason,
		})
	}
	return rows
}

func preview(s string, n int) string {
	if cut := truncateRunes(s, n); cut != s {
		return cut + "..."
	}
	return s
}

// ResolveGeography exposes the geography stage on its own.
func (c *Classifier) ResolveGeography(text string) (domain.Geography, bool) {
	return c.reg.resolveGeography(matchText(text, c.cfg.MaxTextLength))
}

// CollectCandidates returns every domain whose collector pattern matches, in
// priority order.
func (c *Classifier) CollectCandidates(text string) []domain.MarketDomain {
	return c.reg.collectCandidates(matchText(text, c.cfg.MaxTextLength)).list()
}

// DetectExplicit exposes the explicit-phrase stage on its own.
func (c *Classifier) DetectExplicit(text string) (domain.Geography, domain.MarketDomain, bool) {
	return c.reg.detectExplicit(matchText(text, c.cfg.MaxTextLength))
}

// ResolveDomain arbitrates an arbitrary candidate list against text.
func (c *Classifier) ResolveDomain(text string, candidates []domain.MarketDomain) (domain.MarketDomain, bool, domain.ReasonCode) {
	return resolveDomain(matchText(text, c.cfg.MaxTextLength), newCandidateSet(candidates))
}
