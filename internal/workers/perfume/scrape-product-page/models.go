// internal/workers/perfume/scrape-product-page/models.go
package scrapeproductpage

type Input struct {
	ProductURL string `json:"productUrl"`
}

type Output struct {
	PageText   string `json:"pageText"`
	Truncated  bool   `json:"truncated"`
	PageLength int    `json:"pageLength"`
}
