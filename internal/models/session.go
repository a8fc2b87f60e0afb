package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type PipelineState int

const (
	StateIdle PipelineState = iota
	StateSearching
	StateScraping
	StateExtracting
	StateDrafting
	StateOptimizing
	StateDone
	StateFailed
)

var stateNames = map[PipelineState]string{
	StateIdle:       "Idle",
	StateSearching:  "Searching",
	StateScraping:   "Scraping",
	StateExtracting: "Extracting",
	StateDrafting:   "Drafting",
	StateOptimizing: "Optimizing",
	StateDone:       "Done",
	StateFailed:     "Failed",
}

func (s PipelineState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("PipelineState(%d)", int(s))
}

func (s PipelineState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *PipelineState) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for state, n := range stateNames {
		if n == name {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown pipeline state %q", name)
}

// StageFailure describes why a run ended in Failed.
type StageFailure struct {
	Stage     PipelineState `json:"stage"`
	Code      string        `json:"code"`
	Message   string        `json:"message"`
	Details   string        `json:"details,omitempty"`
	RawOutput string        `json:"rawOutput,omitempty"`
}

// GenerationSession is the per-visitor pipeline state. Only one actor mutates it.
type GenerationSession struct {
	ID    string        `json:"id"`
	State PipelineState `json:"state"`

	Query      *SearchQuery         `json:"query,omitempty"`
	Search     *SearchResult        `json:"search,omitempty"`
	Page       *ScrapedPage         `json:"page,omitempty"`
	Options    *WritingOptions      `json:"options,omitempty"`
	Attributes *ExtractedAttributes `json:"attributes,omitempty"`
	Draft      string               `json:"draft,omitempty"`
	FinalText  string               `json:"finalText,omitempty"`
	FinalCopy  string               `json:"finalCopy,omitempty"`
	Failure    *StageFailure        `json:"failure,omitempty"`
	Validation string               `json:"validation,omitempty"`

	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
}

func NewGenerationSession(id string) *GenerationSession {
	now := time.Now().UTC()
	return &GenerationSession{ID: id, State: StateIdle, CreatedAt: now, LastActivity: now}
}

// CanGenerate reports whether search and scrape both produced a result.
func (s *GenerationSession) CanGenerate() bool {
	return s.Search != nil && s.Search.Found() && s.Page != nil
}

// UpdateActivity updates the last activity timestamp
func (s *GenerationSession) UpdateActivity() {
	s.LastActivity = time.Now().UTC()
}
