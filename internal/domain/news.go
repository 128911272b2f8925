package domain

import "time"

// NewsItem is one search result from the news API after cleanup.
type NewsItem struct {
	Company      string    `json:"company"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Press        string    `json:"press"`
	PubDate      time.Time `json:"pub_date"`
	OriginalLink string    `json:"originallink"`
	Link         string    `json:"link"`
	UID          string    `json:"uid"`
}

// NewsRow is a collected article with both classifications attached.
type NewsRow struct {
	NewsItem
	KeywordResult
	MarketCategory string     `json:"market_category"`
	MarketReason   ReasonCode `json:"market_reason"`
}
