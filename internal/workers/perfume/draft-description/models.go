// internal/workers/perfume/draft-description/models.go
package draftdescription

import "perfume-studio/internal/models"

type Input struct {
	Brand      string                      `json:"brand"`
	Model      string                      `json:"model"`
	Attributes *models.ExtractedAttributes `json:"attributes"`
	Options    models.WritingOptions       `json:"options"`
}

type Output struct {
	Draft string `json:"draft"`
}
