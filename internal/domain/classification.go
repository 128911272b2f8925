package domain

import "time"

// ClassificationInput is one article or spreadsheet row to classify.
type ClassificationInput struct {
	Text       string
	SourceHint string
}

// ClassificationResult is the outcome of one classification.
type ClassificationResult struct {
	Category Category
	Reason   ReasonCode
}

// SimulationRow is one line of a simulate batch.
type SimulationRow struct {
	Preview  string     `json:"text"`
	Category string     `json:"category"`
	Reason   ReasonCode `json:"reason"`
}

// ClassificationHistory is a persisted classification record.
type ClassificationHistory struct {
	ID          string    `db:"id"           json:"id"`
	TextHash    string    `db:"text_hash"    json:"text_hash"`
	TextPreview string    `db:"text_preview" json:"text_preview"`
	SourceHint  string    `db:"source_hint"  json:"source_hint"`
	Category    string    `db:"category"     json:"category"`
	ReasonCode  string    `db:"reason_code"  json:"reason_code"`
	Geography   string    `db:"geography"    json:"geography"`
	Domain      string    `db:"domain"       json:"domain"`
	CreatedAt   time.Time `db:"created_at"   json:"created_at"`
}

// ReasonCount is one row of the history breakdown by reason code.
type ReasonCount struct {
	ReasonCode string `db:"reason_code" json:"reason_code"`
	Count      int    `db:"count"       json:"count"`
}
