package classifier

import (
	"sort"
	"strings"
	"sync"

	ahocorasick "github.com/cloudflare/ahocorasick"

	"github.com/jonesrussell/north-cloud/market-classifier/internal/domain"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/logger"
)

// Keyword category priorities; higher wins a score tie.
const (
	prioritySemiconductor = 40
	priorityTV            = 30
	priorityRobot         = 20
	prioritySmartphone    = 10
)

var defaultKeywords = []struct {
	category string
	priority int
	keywords []string
}{
	{domain.KeywordSemiconductor, prioritySemiconductor, []string{
		"반도체", "파운드리", "foundry", "공정", "노드", "nm", "euv", "dram", "nand", "hbm",
		"웨이퍼", "메모리", "낸드", "advanced packaging", "디램", "서버메모리",
		"칩", "chip", "tsmc", "삼성 파운드리", "삼성전자 파운드리", "삼성전자", "SK 하이닉스", "Sk Hynix",
	}},
	{domain.KeywordTV, priorityTV, []string{
		"tv", "티비", "television", "oled", "qled", "lcd", "미니led", "mini led",
		"패널", "panel", "세트", "리테일", "디스플레이",
	}},
	{domain.KeywordRobot, priorityRobot, []string{
		"로봇", "휴머노이드", "humanoid", "협동로봇", "cobot",
		"amr", "agv", "자율주행로봇", "로보틱스", "robot vacuum",
	}},
	{domain.KeywordSmartphone, prioritySmartphone, []string{
		"스마트폰", "휴대폰", "갤럭시", "아이폰", "iphone", "galaxy", "폴더블", "foldable",
	}},
}

// DefaultKeywordRules returns the built-in scoped keyword rules, all with
// scope ALL.
func DefaultKeywordRules() []domain.KeywordRule {
	var rules []domain.KeywordRule
	id := 1
	for _, group := range defaultKeywords {
		for _, kw := range group.keywords {
			rules = append(rules, domain.KeywordRule{
				ID:       id,
				Category: group.category,
				Keyword:  kw,
				Scope:    domain.ScopeAll,
				Priority: group.priority,
				Enabled:  true,
			})
			id++
		}
	}
	return rules
}

// KeywordClassifier scores text against scoped keyword rules with a single
// Aho-Corasick pass. The category with the most distinct keyword hits wins;
// ties go to the higher-priority category.
type KeywordClassifier struct {
	mu       sync.RWMutex
	matcher  *ahocorasick.Matcher
	keywords []string
	byKW     map[string][]domain.KeywordRule
	priority map[string]int
	order    map[string]int
	logger   logger.Logger
}

// NewKeywordClassifier builds the automaton from rules. Disabled rules are
// ignored.
func NewKeywordClassifier(rules []domain.KeywordRule, log logger.Logger) *KeywordClassifier {
	if log == nil {
		log = logger.NewNop()
	}
	k := &KeywordClassifier{logger: log}
	k.rebuildLocked(rules)
	return k
}

// Reload swaps in a new rule set.
func (k *KeywordClassifier) Reload(rules []domain.KeywordRule) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.rebuildLocked(rules)
}

// rebuildLocked must be called with k.mu held for writing, or before k is
// shared.
func (k *KeywordClassifier) rebuildLocked(rules []domain.KeywordRule) {
	k.keywords = k.keywords[:0]
	k.byKW = make(map[string][]domain.KeywordRule)
	k.priority = make(map[string]int)
	k.order = make(map[string]int)

	for _, r := range rules {
		if !r.Enabled {
			continue
		}
		kw := normalizeKeyword(r.Keyword)
		if kw == "" {
			continue
		}
		if _, seen := k.byKW[kw]; !seen {
			k.keywords = append(k.keywords, kw)
		}
		k.byKW[kw] = append(k.byKW[kw], r)
		if r.Priority > k.priority[r.Category] {
			k.priority[r.Category] = r.Priority
		}
		if _, ok := k.order[r.Category]; !ok {
			k.order[r.Category] = len(k.order)
		}
	}

	k.matcher = nil
	if len(k.keywords) > 0 {
		k.matcher = ahocorasick.NewStringMatcher(k.keywords)
	}

	k.logger.Info("Keyword rules loaded",
		logger.Int("rules", len(rules)),
		logger.Int("keywords", len(k.keywords)),
		logger.Int("categories", len(k.priority)),
	)
}

// Classify scores title and description for source. Matched keywords are
// returned in rule order, without duplicates.
func (k *KeywordClassifier) Classify(title, description, source string) domain.KeywordResult {
	other := domain.KeywordResult{Category: domain.KeywordOther, MatchedKeywords: []string{}}

	k.mu.RLock()
	defer k.mu.RUnlock()

	if k.matcher == nil {
		return other
	}

	text := normalizeKeyword(title + " " + description)
	hits := k.matcher.MatchThreadSafe([]byte(text))
	sort.Ints(hits)

	matched := make(map[string][]string)
	seen := make(map[string]map[string]bool)
	for _, idx := range hits {
		if idx < 0 || idx >= len(k.keywords) {
			continue
		}
		kw := k.keywords[idx]
		for _, r := range k.byKW[kw] {
			if !r.AppliesTo(source) {
				continue
			}
			if seen[r.Category] == nil {
				seen[r.Category] = make(map[string]bool)
			}
			if seen[r.Category][kw] {
				continue
			}
			seen[r.Category][kw] = true
			matched[r.Category] = append(matched[r.Category], r.Keyword)
		}
	}

	best := ""
	for cat, kws := range matched {
		if best == "" || k.beats(cat, len(kws), best, len(matched[best])) {
			best = cat
		}
	}
	if best == "" {
		return other
	}

	return domain.KeywordResult{
		Category:        best,
		Score:           len(matched[best]),
		MatchedKeywords: matched[best],
	}
}

// beats orders categories by score, then priority, then first appearance in
// the rule set so the result never depends on map iteration.
func (k *KeywordClassifier) beats(cat string, score int, other string, otherScore int) bool {
	if score != otherScore {
		return score > otherScore
	}
	if k.priority[cat] != k.priority[other] {
		return k.priority[cat] > k.priority[other]
	}
	return k.order[cat] < k.order[other]
}

// normalizeKeyword lowercases and collapses whitespace.
func normalizeKeyword(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
