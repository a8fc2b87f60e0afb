package models

// SearchQuery is the immutable input of one resolution.
type SearchQuery struct {
	Brand        string   `json:"brand"`
	Model        string   `json:"model"`
	AllowedSites []string `json:"allowedSites"`
	Debug        bool     `json:"debug"`
}

// SearchResult carries an empty URL when nothing matched or the search failed.
type SearchResult struct {
	URL       string            `json:"url,omitempty"`
	Title     string            `json:"title,omitempty"`
	Snippet   string            `json:"snippet"`
	QueryUsed string            `json:"queryUsed,omitempty"`
	Strategy  int               `json:"strategy,omitempty"`
	Trace     []StrategyAttempt `json:"trace,omitempty"`
}

func (r SearchResult) Found() bool {
	return r.URL != ""
}

// StrategyAttempt is one query issued by the resolver, recorded in debug mode.
type StrategyAttempt struct {
	Strategy int    `json:"strategy"`
	Query    string `json:"query"`
	Items    int    `json:"items"`
	Outcome  string `json:"outcome"`
}
