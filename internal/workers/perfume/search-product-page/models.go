// internal/workers/perfume/search-product-page/models.go
package searchproductpage

import "perfume-studio/internal/models"

type Input struct {
	Brand string   `json:"brand"`
	Model string   `json:"model"`
	Sites []string `json:"sites"`
	Debug bool     `json:"debug"`
}

type Output struct {
	ProductURL  string                   `json:"productUrl"`
	Title       string                   `json:"title,omitempty"`
	Snippet     string                   `json:"snippet"`
	QueryUsed   string                   `json:"queryUsed"`
	Strategy    int                      `json:"strategy"`
	SearchTrace []models.StrategyAttempt `json:"searchTrace,omitempty"`
}
