package domain

import "time"

// ScopeAll applies a keyword rule to every source.
const ScopeAll = "ALL"

// Keyword categories used by the news report.
const (
	KeywordSemiconductor = "Semiconductor(Memory)"
	KeywordTV            = "TV"
	KeywordRobot         = "Robot"
	KeywordSmartphone    = "Smartphone"
	KeywordOther         = "Other"
)

// KeywordRule maps one keyword to a report category, optionally limited to a
// single source.
type KeywordRule struct {
	ID        int       `db:"id"         json:"id"`
	Category  string    `db:"category"   json:"category"`
	Keyword   string    `db:"keyword"    json:"keyword"`
	Scope     string    `db:"scope"      json:"scope"`
	Priority  int       `db:"priority"   json:"priority"`
	Enabled   bool      `db:"enabled"    json:"enabled"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AppliesTo reports whether the rule is in scope for source.
func (r KeywordRule) AppliesTo(source string) bool {
	return r.Scope == "" || r.Scope == ScopeAll || r.Scope == source
}

// KeywordResult is the keyword scorer's verdict for one article.
type KeywordResult struct {
	Category        string   `json:"category"`
	Score           int      `json:"score"`
	MatchedKeywords []string `json:"matched_keywords"`
}
