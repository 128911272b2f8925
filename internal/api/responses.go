package api

import (
	"github.com/jonesrussell/north-cloud/market-classifier/internal/domain"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/news"
)

// Request bounds.
const (
	maxBatchItems    = 1000
	defaultPageLimit = 50
	maxPageLimit     = 500
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ClassifyRequest is the body of POST /api/v1/classify.
type ClassifyRequest struct {
	Text       string `binding:"required" json:"text"`
	SourceHint string `json:"source_hint"`
}

// ClassifyResponse is one classification verdict.
type ClassifyResponse struct {
	ID        string            `json:"id,omitempty"`
	Category  string            `json:"category"`
	Reason    domain.ReasonCode `json:"reason"`
	Geography string            `json:"geography,omitempty"`
	Domain    string            `json:"domain,omitempty"`
}

// BatchItem is one entry of a batch request.
type BatchItem struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	SourceHint string `json:"source_hint"`
}

// BatchClassifyRequest is the body of POST /api/v1/classify/batch.
type BatchClassifyRequest struct {
	Items []BatchItem `binding:"required,min=1,max=1000" json:"items"`
}

// BatchClassifyResponse holds results in request order.
type BatchClassifyResponse struct {
	Results []ClassifyResponse `json:"results"`
	Total   int                `json:"total"`
}

// SimulateRequest is the body of POST /api/v1/classify/simulate.
type SimulateRequest struct {
	Texts      []string `binding:"required,min=1,max=1000" json:"texts"`
	SourceHint string   `json:"source_hint"`
}

// SimulateResponse lists one row per text.
type SimulateResponse struct {
	Rows  []domain.SimulationRow `json:"rows"`
	Total int                    `json:"total"`
}

// TaxonomyResponse describes the closed category set.
type TaxonomyResponse struct {
	Locale      domain.Locale       `json:"locale"`
	Geographies []string            `json:"geographies"`
	Domains     []string            `json:"domains"`
	ReasonCodes []domain.ReasonCode `json:"reason_codes"`
	Whitelist   []string            `json:"whitelist"`
}

// CollectResponse is returned by POST /api/v1/news/collect.
type CollectResponse struct {
	JobID       string     `json:"job_id"`
	DownloadURL string     `json:"download_url"`
	Stats       news.Stats `json:"stats"`
}

// CreateRuleRequest is the body of POST /api/v1/rules.
type CreateRuleRequest struct {
	Category string `binding:"required" json:"category"`
	Keyword  string `binding:"required" json:"keyword"`
	Scope    string `json:"scope"`
	Priority int    `json:"priority"`
	Enabled  *bool  `json:"enabled"`
}

// RulesListResponse lists keyword rules.
type RulesListResponse struct {
	Rules []domain.KeywordRule `json:"rules"`
	Total int                  `json:"total"`
}

// HistoryListResponse is a page of classification history.
type HistoryListResponse struct {
	Items  []domain.ClassificationHistory `json:"items"`
	Total  int                            `json:"total"`
	Limit  int                            `json:"limit"`
	Offset int                            `json:"offset"`
}

// HistoryStatsResponse breaks history down by reason code.
type HistoryStatsResponse struct {
	Total    int                  `json:"total"`
	ByReason []domain.ReasonCount `json:"by_reason"`
}

func toClassifyResponse(id string, res domain.ClassificationResult, loc domain.Locale) ClassifyResponse {
	out := ClassifyResponse{
		ID:       id,
		Category: res.Category.Label(loc),
		Reason:   res.Reason,
	}
	if g, ok := res.Category.Geography(); ok {
		out.Geography = g.Label(loc)
	}
	if d, ok := res.Category.Domain(); ok {
		out.Domain = d.Label(loc)
	}
	return out
}
