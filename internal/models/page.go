package models

import "time"

// ScrapedPage is the bounded visible text of a fetched product page.
type ScrapedPage struct {
	URL       string    `json:"url"`
	Text      string    `json:"text"`
	Truncated bool      `json:"truncated"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Length is the text length in characters.
func (p *ScrapedPage) Length() int {
	return len([]rune(p.Text))
}
