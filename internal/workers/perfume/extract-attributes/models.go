// internal/workers/perfume/extract-attributes/models.go
package extractattributes

import "perfume-studio/internal/models"

type Input struct {
	PageText string                `json:"pageText"`
	Options  models.WritingOptions `json:"options"`
}

type Output struct {
	Attributes    *models.ExtractedAttributes `json:"attributes"`
	RawExtraction string                      `json:"rawExtraction"`
	LLMModel      string                      `json:"llmModel"`
}
