package classifier_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/north-cloud/market-classifier/internal/classifier"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/domain"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/logger"
)

func TestKeywordClassifier_Defaults(t *testing.T) {
	t.Parallel()

	k := classifier.NewKeywordClassifier(classifier.DefaultKeywordRules(), logger.NewNop())

	tests := []struct {
		name      string
		title     string
		desc      string
		wantCat   string
		wantScore int
		wantKW    []string
	}{
		{
			name:      "semiconductor keywords",
			title:     "삼성전자 파운드리",
			desc:      "HBM 증설",
			wantCat:   domain.KeywordSemiconductor,
			wantScore: 4,
			wantKW:    []string{"파운드리", "hbm", "삼성전자 파운드리", "삼성전자"},
		},
		{
			name:      "matched keywords keep rule casing",
			title:     "sk 하이닉스, SK HYNIX HBM",
			wantCat:   domain.KeywordSemiconductor,
			wantScore: 3,
			wantKW:    []string{"hbm", "SK 하이닉스", "Sk Hynix"},
		},
		{
			name:      "tie goes to tv over smartphone",
			title:     "Galaxy TV",
			wantCat:   domain.KeywordTV,
			wantScore: 1,
			wantKW:    []string{"tv"},
		},
		{
			name:      "smartphone",
			title:     "아이폰 판매 호조",
			desc:      "폴더블 신제품",
			wantCat:   domain.KeywordSmartphone,
			wantScore: 2,
			wantKW:    []string{"아이폰", "폴더블"},
		},
		{
			name:      "nothing matches",
			title:     "weather report",
			wantCat:   domain.KeywordOther,
			wantScore: 0,
			wantKW:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := k.Classify(tt.title, tt.desc, "")
			assert.Equal(t, tt.wantCat, got.Category)
			assert.Equal(t, tt.wantScore, got.Score)
			assert.Equal(t, tt.wantKW, got.MatchedKeywords)
		})
	}
}

func TestKeywordClassifier_Scope(t *testing.T) {
	t.Parallel()

	rules := []domain.KeywordRule{
		{ID: 1, Category: "Widgets", Keyword: "widget", Scope: "CP", Priority: 5, Enabled: true},
		{ID: 2, Category: "Gadgets", Keyword: "gadget", Scope: domain.ScopeAll, Priority: 1, Enabled: true},
		{ID: 3, Category: "Gadgets", Keyword: "disabled", Scope: domain.ScopeAll, Priority: 1, Enabled: false},
	}
	k := classifier.NewKeywordClassifier(rules, logger.NewNop())

	assert.Equal(t, "Widgets", k.Classify("widget gadget", "", "CP").Category)
	assert.Equal(t, "Gadgets", k.Classify("widget gadget", "", "IDC").Category)
	assert.Equal(t, domain.KeywordOther, k.Classify("disabled", "", "CP").Category)

	k.Reload(nil)
	assert.Equal(t, domain.KeywordOther, k.Classify("widget gadget", "", "CP").Category)
}
