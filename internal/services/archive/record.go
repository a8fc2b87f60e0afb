package archive

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"perfume-studio/internal/models"
)

// Record is one completed description run.
type Record struct {
	ID         string                      `json:"id"`
	SessionID  string                      `json:"sessionId"`
	Brand      string                      `json:"brand"`
	Model      string                      `json:"model"`
	ProductURL string                      `json:"productUrl"`
	Attributes *models.ExtractedAttributes `json:"attributes,omitempty"`
	Draft      string                      `json:"draft"`
	FinalText  string                      `json:"finalText"`
	FinalCopy  string                      `json:"finalCopy,omitempty"`
	LLMModel   string                      `json:"llmModel"`
	CreatedAt  time.Time                   `json:"createdAt"`
}

// FromSession snapshots a Done session.
func FromSession(s *models.GenerationSession, now time.Time) Record {
	r := Record{
		ID:         uuid.NewString(),
		SessionID:  s.ID,
		Attributes: s.Attributes,
		Draft:      s.Draft,
		FinalText:  s.FinalText,
		FinalCopy:  s.FinalCopy,
		CreatedAt:  now.UTC(),
	}
	if s.Query != nil {
		r.Brand = s.Query.Brand
		r.Model = s.Query.Model
	}
	if s.Search != nil {
		r.ProductURL = s.Search.URL
	}
	if s.Options != nil {
		r.LLMModel = s.Options.Model
	}
	return r
}

func (r Record) attributesJSON() ([]byte, error) {
	if r.Attributes == nil {
		return nil, nil
	}
	return json.Marshal(r.Attributes)
}
