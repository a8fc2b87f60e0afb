package models

import (
	"fmt"
	"strconv"
	"strings"
)

var Vibes = []string{
	"ערב ומסתורי",
	"רענן ויומיומי",
	"חושני וסקסי",
	"יוקרתי ורשמי",
}

var Audiences = []string{
	"יוניסקס",
	"גבר",
	"אישה",
}

const (
	MinLengthWords     = 80
	MaxLengthWords     = 400
	DefaultLengthWords = 175
	lengthSpread       = 25
)

// WritingOptions steer the draft and SEO prompts.
type WritingOptions struct {
	Vibe        string `json:"vibe"`
	Audience    string `json:"audience"`
	SEOKeywords string `json:"seoKeywords"`
	LengthWords int    `json:"lengthWords"`
	Model       string `json:"model"`
}

// WithDefaults fills unset fields. Model stays empty when defaultModel is.
func (o WritingOptions) WithDefaults(defaultModel string) WritingOptions {
	if o.Vibe == "" {
		o.Vibe = Vibes[0]
	}
	if o.Audience == "" {
		o.Audience = Audiences[0]
	}
	if o.LengthWords == 0 {
		o.LengthWords = DefaultLengthWords
	}
	if o.Model == "" {
		o.Model = defaultModel
	}
	return o
}

// Validate checks the enums and bounds. Model membership is checked by the caller.
func (o WritingOptions) Validate() error {
	if !contains(Vibes, o.Vibe) {
		return fmt.Errorf("unknown vibe %q", o.Vibe)
	}
	if !contains(Audiences, o.Audience) {
		return fmt.Errorf("unknown audience %q", o.Audience)
	}
	if o.LengthWords < MinLengthWords || o.LengthWords > MaxLengthWords {
		return fmt.Errorf("length must be between %d and %d words", MinLengthWords, MaxLengthWords)
	}
	return nil
}

// ParseLengthWords reads a form length. Blank means unset (zero); anything
// else must be a whole number.
func ParseLengthWords(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("length must be a whole number of words, got %q", raw)
	}
	return n, nil
}

// LengthRange renders the target length as a word range, e.g. "150-200".
func (o WritingOptions) LengthRange() string {
	low := o.LengthWords - lengthSpread
	if low < 1 {
		low = 1
	}
	return fmt.Sprintf("%d-%d", low, o.LengthWords+lengthSpread)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
