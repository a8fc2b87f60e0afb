// internal/workers/perfume/optimize-seo/models.go
package optimizeseo

import "perfume-studio/internal/models"

type Input struct {
	Brand      string                      `json:"brand"`
	Model      string                      `json:"model"`
	Sites      []string                    `json:"sites"`
	ProductURL string                      `json:"productUrl"`
	Attributes *models.ExtractedAttributes `json:"attributes"`
	Draft      string                      `json:"draft"`
	Options    models.WritingOptions       `json:"options"`
}

type Output struct {
	FinalText string `json:"finalText"`
	FinalCopy string `json:"finalCopy"`
}
